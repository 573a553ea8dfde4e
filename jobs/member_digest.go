package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ecclesia-app/ecclesia/internal/members"
)

// MemberDigester summarises how many members joined in a recent window.
type MemberDigester struct {
	repo   *members.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewMemberDigester(repo *members.Repository, logger *slog.Logger) *MemberDigester {
	return &MemberDigester{repo: repo, logger: logger, now: time.Now}
}

// Handle processes TaskMemberDigest tasks.
func (d *MemberDigester) Handle(ctx context.Context, t *asynq.Task) error {
	payload := MemberDigestPayload{Days: 7}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Days <= 0 {
		payload.Days = 7
	}
	since := d.now().AddDate(0, 0, -payload.Days).Format("2006-01-02")
	joined, err := d.repo.CountJoinedSince(ctx, since)
	if err != nil {
		return err
	}
	d.logger.Info("member digest",
		slog.String("job", TaskMemberDigest),
		slog.String("since", since),
		slog.Int64("joined", joined),
	)
	return nil
}
