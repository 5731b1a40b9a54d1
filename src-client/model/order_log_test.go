package model_test

import (
	"context"
	"testing"
	"time"

	"kiosco/src-client/model"
)

func TestOrderLog(t *testing.T) {
	bundb := newTestDB(t)
	ctx := context.Background()

	// case: insert requires an order id
	func() {
		orderLogModel := model.OrderLog{Customer: "nobody"}
		if err := orderLogModel.Insert(ctx, bundb); err == nil {
			t.Error("expected error inserting order without id")
		}
	}()

	// insert three orders with distinct received times
	now := time.Now().UTC().Unix()
	for i, orderID := range []int64{101, 102, 103} {
		orderLogModel := model.OrderLog{
			OrderID:           orderID,
			Customer:          "cliente",
			Total:             1500.50,
			ProductCount:      3,
			CustomerPhone:     "555-0100",
			ReceivedAtUnixUTC: now + int64(i),
		}
		if err := orderLogModel.Insert(ctx, bundb); err != nil {
			t.Fatal(err)
		}
	}

	// case: recent orders come newest first and honor the limit
	func() {
		orders, err := model.RecentOrders(ctx, bundb, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(orders) != 2 {
			t.Fatal("expected 2 orders, got", len(orders))
		}
		if orders[0].OrderID != 103 || orders[1].OrderID != 102 {
			t.Error("wrong ordering", orders[0].OrderID, orders[1].OrderID)
		}
	}()

	// case: acknowledging stamps only the matching unacknowledged row
	func() {
		if err := model.MarkOrderAcknowledged(ctx, bundb, 102); err != nil {
			t.Fatal(err)
		}
		orders, err := model.RecentOrders(ctx, bundb, 10)
		if err != nil {
			t.Fatal(err)
		}
		for _, order := range orders {
			acked := order.AcknowledgedAtUnixUTC != 0
			if order.OrderID == 102 && !acked {
				t.Error("order 102 should be acknowledged")
			}
			if order.OrderID != 102 && acked {
				t.Error("order should not be acknowledged", order.OrderID)
			}
		}
	}()

	// case: pruning drops rows older than the cutoff
	func() {
		pruned, err := model.PruneOrderLog(ctx, bundb, time.Unix(now+2, 0))
		if err != nil {
			t.Fatal(err)
		}
		if pruned != 2 {
			t.Error("expected 2 pruned rows, got", pruned)
		}
		orders, err := model.RecentOrders(ctx, bundb, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(orders) != 1 || orders[0].OrderID != 103 {
			t.Error("only order 103 should survive the prune")
		}
	}()
}
