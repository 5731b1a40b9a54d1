package scheduler

import (
	"context"
	"log/slog"
	"time"

	"kiosco/src-client/model"
	"kiosco/src-client/utils"
)

// OrderLogPrune drops order log rows older than the retention window,
// once an hour.
func OrderLogPrune(as *utils.AppState) {
	gracefulShutdownCh := as.CreateGracefulShutdownChan()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-*gracefulShutdownCh:
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-as.Config.GetOrderLogRetention())
		pruned, err := model.PruneOrderLog(context.Background(), as.BunDB, cutoff)
		if err != nil {
			slog.Error("can't prune order log", "error", err)
			continue
		}
		if pruned > 0 {
			slog.Info("order log pruned", "rows", pruned, "cutoff", cutoff)
		}
	}
}
