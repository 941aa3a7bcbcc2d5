// internal/workers/commerce/upgrade-subscription/models.go
package upgradesubscription

import "counseling-workers/internal/models"

type Input struct {
	AccountID string      `json:"accountId"`
	NewPlan   models.Plan `json:"newPlan"`
}

type Output struct {
	SubscriptionID string      `json:"subscriptionId"`
	Plan           models.Plan `json:"plan"`
	UpgradeCost    int         `json:"upgradeCost"`
}
