package plans

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ascendancy-backend/internal/domain/plans"
)

// ListTiers returns the public tier catalog with derived totals.
func ListTiers(c *gin.Context) {
	type tierView struct {
		plans.Tier
		InstallmentTotal int64 `json:"installment_total"`
	}

	all := plans.All()
	out := make([]tierView, 0, len(all))
	for _, t := range all {
		out = append(out, tierView{Tier: t, InstallmentTotal: t.InstallmentTotal()})
	}

	c.JSON(http.StatusOK, out)
}
