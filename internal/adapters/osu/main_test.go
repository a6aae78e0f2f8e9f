package osu_test

import (
	"os"
	"testing"

	"github.com/okian/osuwrapped/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}
