package services

import (
	"context"

	"github.com/username/debtfolio/src/database"
	"github.com/username/debtfolio/src/logger"
	"github.com/username/debtfolio/src/models"
	"github.com/username/debtfolio/src/remotestore"
)

type historyServiceImpl struct {
	client remotestore.Client
}

// NewHistoryService builds the history listing service. Successful fetches
// refresh the local mirror; when the remote store is down the mirror is
// served instead, flagged as degraded.
func NewHistoryService(client remotestore.Client) HistoryService {
	return &historyServiceImpl{client: client}
}

func (s *historyServiceImpl) History(ctx context.Context) ([]models.HistoryRecord, bool, error) {
	records, err := s.client.FetchHistory(ctx)
	if err == nil {
		if database.DB != nil {
			if serr := database.SaveHistorySnapshot(records); serr != nil && logger.L != nil {
				logger.L.Warn("Failed to persist history snapshot", "error", serr)
			}
		}
		return records, false, nil
	}

	if database.DB != nil {
		snapshot, serr := database.LoadHistorySnapshot()
		if serr == nil && len(snapshot) > 0 {
			if logger.L != nil {
				logger.L.Warn("Serving history from local mirror, remote store unavailable", "error", err)
			}
			return snapshot, true, nil
		}
	}

	return nil, false, err
}
