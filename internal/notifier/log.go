package notifier

import (
	"log/slog"

	"github.com/amishk599/jobsync/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes newly accepted jobs to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each job via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs each job with organization, post, category, confidence and link.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(jobs []model.VerifiedJob) error {
	for _, j := range jobs {
		args := []any{
			"organization", j.Organization,
			"post", j.PostName,
			"category", j.Category,
			"confidence", j.AIConfidence,
			"url", j.OfficialLink,
		}
		if j.Vacancies > 0 {
			args = append(args, "vacancies", j.Vacancies)
		}
		if j.LastDate != "" {
			args = append(args, "last_date", j.LastDate)
		}
		n.logger.Info("new job", args...)
	}
	return nil
}
