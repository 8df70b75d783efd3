package accesslog

import (
	"context"
	"fmt"
	"time"

	"github.com/smsrelay-dev/smsrelay-admin/internal/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry is one authenticated API access.
type Entry struct {
	UserID   uint64
	APIKeyID *uint64
	Method   string
	Path     string
	Metadata datatypes.JSON
}

// Recorder persists access log rows.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(conn *gorm.DB) *Recorder {
	return &Recorder{db: conn}
}

// Write persists an entry synchronously.
func (r *Recorder) Write(ctx context.Context, entry Entry) error {
	row := models.AccessLog{
		UserID:    entry.UserID,
		APIKeyID:  entry.APIKeyID,
		Method:    entry.Method,
		Path:      entry.Path,
		Metadata:  entry.Metadata,
		CreatedAt: time.Now().UTC(),
	}
	if errCreate := r.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		return fmt.Errorf("accesslog: write: %w", errCreate)
	}
	return nil
}

// Record persists an entry in the background. Failures are logged and
// never surface to the request path.
func (r *Recorder) Record(entry Entry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if errWrite := r.Write(ctx, entry); errWrite != nil {
			log.WithError(errWrite).Warn("accesslog: background write failed")
		}
	}()
}
