package enums

import "fmt"

// NotificationType categorizes in-app notification records.
type NotificationType string

const (
	NotificationTypeOrderCreated     NotificationType = "ORDER_CREATED"
	NotificationTypeOrderStatus      NotificationType = "ORDER_STATUS"
	NotificationTypeDeliveryAssigned NotificationType = "DELIVERY_ASSIGNED"
	NotificationTypeLowStock         NotificationType = "LOW_STOCK"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderCreated,
	NotificationTypeOrderStatus,
	NotificationTypeDeliveryAssigned,
	NotificationTypeLowStock,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
