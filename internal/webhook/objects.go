package webhook

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/harshpatel5940/stripevigil/internal/models"
)

var errMissingObjectID = errors.New("data.object has no id")

func checkoutFromEvent(event *Event, receivedAt time.Time) (*models.CheckoutSession, error) {
	obj, _ := event.Object.(map[string]any)
	sessionID := stringField(obj, "id")
	if sessionID == nil {
		return nil, errMissingObjectID
	}

	email := stringField(obj, "customer_email")
	if email == nil {
		details, _ := obj["customer_details"].(map[string]any)
		email = stringField(details, "email")
	}

	return &models.CheckoutSession{
		SessionID:      *sessionID,
		EventID:        event.ID,
		CustomerID:     stringField(obj, "customer"),
		SubscriptionID: stringField(obj, "subscription"),
		CustomerEmail:  email,
		AmountTotal:    int64Field(obj, "amount_total"),
		Currency:       stringField(obj, "currency"),
		PaymentStatus:  stringField(obj, "payment_status"),
		Mode:           stringField(obj, "mode"),
		CompletedAt:    receivedAt,
	}, nil
}

func subscriptionFromEvent(event *Event, receivedAt time.Time) (*models.Subscription, error) {
	obj, _ := event.Object.(map[string]any)
	subscriptionID := stringField(obj, "id")
	if subscriptionID == nil {
		return nil, errMissingObjectID
	}

	status := "canceled"
	if s := stringField(obj, "status"); s != nil {
		status = *s
	}

	return &models.Subscription{
		SubscriptionID: *subscriptionID,
		EventID:        event.ID,
		CustomerID:     stringField(obj, "customer"),
		Status:         status,
		CanceledAt:     unixTimeField(obj, "canceled_at"),
		EndedAt:        unixTimeField(obj, "ended_at"),
		DeletedAt:      receivedAt,
	}, nil
}

// stringField returns obj[key] as a string. Expanded objects such as
// "customer": {"id": "cus_..."} resolve to their id.
func stringField(obj map[string]any, key string) *string {
	switch v := obj[key].(type) {
	case string:
		if v == "" {
			return nil
		}
		return &v
	case map[string]any:
		return stringField(v, "id")
	default:
		return nil
	}
}

func int64Field(obj map[string]any, key string) *int64 {
	n, ok := obj[key].(json.Number)
	if !ok {
		return nil
	}
	i, err := n.Int64()
	if err != nil {
		return nil
	}
	return &i
}

func unixTimeField(obj map[string]any, key string) *time.Time {
	secs := int64Field(obj, key)
	if secs == nil {
		return nil
	}
	t := time.Unix(*secs, 0).UTC()
	return &t
}
