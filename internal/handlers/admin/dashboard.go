package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"storefront_back_end/internal/handlers"
	"storefront_back_end/internal/store"
)

// GET /api/admin/dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	var counts store.DashboardCounts
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		counts.Products, err = h.Store.CountProducts(ctx)
		return err
	})
	g.Go(func() (err error) {
		counts.Orders, err = h.Store.CountOrders(ctx)
		return err
	})
	g.Go(func() (err error) {
		counts.Users, err = h.Store.CountProfiles(ctx)
		return err
	})
	g.Go(func() (err error) {
		counts.Revenue, err = h.Store.Revenue(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		handlers.Fail(c, err, "Dashboard")
		return
	}
	c.JSON(http.StatusOK, counts)
}
