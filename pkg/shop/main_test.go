package shop

import (
	"os"
	"testing"

	"github.com/DasilvaKareem/wogshard/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel})
	os.Exit(m.Run())
}
