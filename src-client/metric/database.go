package metric

import (
	"context"
	"time"

	"kiosco/src-client/model"
	"kiosco/src-client/utils"
)

func database(as *utils.AppState) (time.Duration, error) {
	start := time.Now()
	if _, err := as.BunDB.NewSelect().
		Model((*model.OrderLog)(nil)).
		Where("order_id = ?", 0).
		Exists(context.Background()); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
