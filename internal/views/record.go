package views

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"inkwell/internal/config"
	"inkwell/internal/pkg/geoip"
	"inkwell/internal/pkg/referrers"
	"inkwell/internal/pkg/useragent"
)

// RecordViewInput defines the input required to track a page view.
type RecordViewInput struct {
	PostID     uint
	SessionID  string
	UserID     uint
	IPAddress  string
	UserAgent  string
	Referrer   string
	OccurredAt time.Time
}

// RecordView runs the dedup check and, when the view is accepted, enriches
// and persists it. Returns whether a new event was written.
//
// Enrichment (device, browser, OS, country, referrer hostname) is
// best-effort: a failed lookup falls back to the unknown constants and the
// event is still recorded. Storage failures propagate to the caller.
func RecordView(dbManager cartridge.DBManager, logger *slog.Logger, input *RecordViewInput) (bool, error) {
	identity := Identity{
		SessionID: input.SessionID,
		UserID:    input.UserID,
		IPAddress: input.IPAddress,
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	db := dbManager.GetConnection()
	window := config.GetConfig().GetDedupWindow()

	record, err := ShouldRecordView(db, input.PostID, identity, occurredAt, window)
	if err != nil {
		return false, err
	}
	if !record {
		logger.Debug("Suppressing repeat view",
			slog.Uint64("postId", uint64(input.PostID)),
			slog.Duration("window", window))
		return false, nil
	}

	event := enrich(logger, input, identity, occurredAt)

	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(event).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to store view event: %w", err)
	}
	return true, nil
}

// enrich builds the ViewEvent with normalized device, geo and referrer
// attributes. Never fails: unparseable input degrades to unknown values.
func enrich(logger *slog.Logger, input *RecordViewInput, identity Identity, occurredAt time.Time) *ViewEvent {
	ua := useragent.Parse(input.UserAgent)

	deviceType := ua.Device
	if deviceType == "" {
		deviceType = UnknownDevice
	}
	browser := ua.Browser
	if browser == "" {
		browser = UnknownBrowser
	}
	os := ua.OS
	if os == "" {
		os = UnknownOS
	}

	country := geoip.GetCountryFromIP(input.IPAddress)
	if country == "" {
		country = UnknownCountry
	}

	referrerHostname := referrers.Hostname(input.Referrer)
	if referrerHostname == "" {
		referrerHostname = DirectOrUnknownReferrer
	}

	var userID sql.NullInt64
	if input.UserID > 0 {
		userID = sql.NullInt64{Int64: int64(input.UserID), Valid: true}
	}

	if ua.Bot {
		logger.Debug("Recording view from detected bot user agent",
			slog.Uint64("postId", uint64(input.PostID)),
			slog.String("browser", browser))
	}

	return &ViewEvent{
		PostID:           input.PostID,
		ActorKey:         identity.ActorKey(),
		SessionID:        input.SessionID,
		UserID:           userID,
		IPAddress:        input.IPAddress,
		UserAgent:        input.UserAgent,
		Referrer:         input.Referrer,
		ReferrerHostname: referrerHostname,
		Country:          country,
		DeviceType:       deviceType,
		Browser:          browser,
		OS:               os,
		OccurredAt:       occurredAt,
	}
}
