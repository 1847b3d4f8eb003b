package projection

import (
	"fmt"
	"testing"

	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"github.com/nexusiam/iamcore/pkg/infrastructure"
	"gorm.io/gorm"
)

// nopLogger discards every call, used across this package's tests in place
// of the zap-backed production logger.
type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})  {}
func (nopLogger) Info(string, ...interface{})   {}
func (nopLogger) Warn(string, ...interface{})   {}
func (nopLogger) Error(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Fatalf(string, ...interface{}) {}

var _ coredomain.Logger = nopLogger{}

// newTestDB opens a fresh named in-memory sqlite database scoped to the
// calling test, so cursors and projection rows never leak across test
// cases sharing the process.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := infrastructure.NewDatabase(infrastructure.DatabaseConfig{
		Driver: "sqlite",
		DSN:    dsn,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}
