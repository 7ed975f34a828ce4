package query

// ChannelProfile is the public projection returned for a channel lookup.
// Only public fields appear here; credential fields have no place to leak.
type ChannelProfile struct {
	Username           string `bson:"username" json:"username"`
	FullName           string `bson:"fullName" json:"fullName"`
	SubscribersCount   int64  `bson:"subscribersCount" json:"subscribersCount"`
	SubscriptionsCount int64  `bson:"subscriptionsCount" json:"subscriptionsCount"`
	IsSubscribed       bool   `bson:"isSubscribed" json:"isSubscribed"`
	Avatar             string `bson:"avatar" json:"avatar"`
	CoverImage         string `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
}
