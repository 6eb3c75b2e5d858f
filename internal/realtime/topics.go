package realtime

import (
	"strconv"

	"github.com/spec-kit/restaurant-backoffice/internal/domain"
)

const (
	TopicOrders        = "/topic/orders"
	TopicDeliveries    = "/topic/deliveries"
	TopicSystem        = "/topic/system"
	TopicKitchen       = "/topic/kitchen"
	TopicDeliveryStaff = "/topic/delivery-staff"
)

// UniversalTopics are subscribed for every role.
var UniversalTopics = []string{TopicOrders, TopicDeliveries, TopicSystem}

// entitlements maps a role to its extra topics. Supervisors get the union of
// the workflow topics.
var entitlements = map[domain.Role][]string{
	domain.RoleKitchenStaff:  {TopicKitchen},
	domain.RoleDeliveryStaff: {TopicDeliveryStaff},
	domain.RoleAdmin:         {TopicKitchen, TopicDeliveryStaff},
	domain.RoleManager:       {TopicKitchen, TopicDeliveryStaff},
}

// UserTopic is the private notification topic of one user.
func UserTopic(userID int64) string {
	return "/user/" + strconv.FormatInt(userID, 10) + "/notifications"
}

// TopicsFor returns the full subscription set for a connection: universal
// topics, then the role's entitled topics, then the private topic.
func TopicsFor(role domain.Role, userID int64) []string {
	topics := make([]string, 0, len(UniversalTopics)+3)
	topics = append(topics, UniversalTopics...)
	topics = append(topics, entitlements[role]...)
	topics = append(topics, UserTopic(userID))
	return topics
}
