package domain

// RewardOffer describes the coins a campaign pays out per watched media.
type RewardOffer struct {
	Type   string `json:"type,omitempty"`
	Amount int64  `json:"amount,omitempty"`
}

// Campaign is an ad campaign exposed by an upstream zone. It is transient
// state, rebuilt on every discovery run.
type Campaign struct {
	ID         string
	Name       string
	TrackingID string
	Offers     []RewardOffer
}

// Media is a single watchable item inside a campaign.
type Media struct {
	ID       string
	Title    string
	VideoURL string
	Viewed   bool
}

// CampaignMedia pairs a media item with its campaign and the source zone it
// was discovered in. The media id is the dedup key across overlapping zones.
type CampaignMedia struct {
	Campaign Campaign
	Media    Media
	Source   string
}
