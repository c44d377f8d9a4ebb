package carrier

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"carrier-rewards/internal/core/domain"
)

// The three upstreams share one ad-server product, so the campaign zone
// response shape is common even though everything around it differs.

type zoneResponse struct {
	Campaigns []campaignPayload `json:"campaigns"`
}

type campaignPayload struct {
	CampaignUUID  string          `json:"campaignUuid"`
	CampaignName  string          `json:"campaignName"`
	TrackingID    string          `json:"trackingId"`
	BenefitOffers []rewardPayload `json:"benefitOffers"`
	MainData      struct {
		Media []mediaPayload `json:"media"`
	} `json:"mainData"`
}

type rewardPayload struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount"`
}

type mediaPayload struct {
	UUID           string `json:"uuid"`
	Title          string `json:"title"`
	Type           string `json:"type"`
	Viewed         bool   `json:"viewed"`
	FallbackNoFill struct {
		Type            string `json:"type"`
		ModeVideo       bool   `json:"modeVideo"`
		OriginalContent string `json:"originalContent"`
	} `json:"fallbackNoFill"`
}

// playableVideo reports whether the media entry carries an actual watchable
// video. One upstream mixes video and non-video media in the same payload;
// only programmatic entries with a filled VAST fallback count.
func (m mediaPayload) playableVideo() bool {
	return m.Type == "programatica" &&
		m.FallbackNoFill.Type == "vast" &&
		m.FallbackNoFill.ModeVideo &&
		m.FallbackNoFill.OriginalContent != ""
}

// flatten converts a zone response into campaign/media pairs. When
// videosOnly is set, non-video media entries are dropped.
func (z zoneResponse) flatten(source string, videosOnly bool) []domain.CampaignMedia {
	var items []domain.CampaignMedia
	for _, c := range z.Campaigns {
		campaign := domain.Campaign{
			ID:         c.CampaignUUID,
			Name:       c.CampaignName,
			TrackingID: c.TrackingID,
		}
		for _, o := range c.BenefitOffers {
			campaign.Offers = append(campaign.Offers, domain.RewardOffer{Type: o.Type, Amount: o.Amount})
		}
		for _, m := range c.MainData.Media {
			if videosOnly && !m.playableVideo() {
				continue
			}
			items = append(items, domain.CampaignMedia{
				Campaign: campaign,
				Media: domain.Media{
					ID:       m.UUID,
					Title:    m.Title,
					VideoURL: m.FallbackNoFill.OriginalContent,
					Viewed:   m.Viewed,
				},
				Source: source,
			})
		}
	}
	return items
}

// androidAdContext builds the device fingerprint block the android-channel
// ad server expects alongside a zone query.
func androidAdContext(appVersion string) map[string]string {
	return map[string]string{
		"appVersion": appVersion,
		"product":    "windows_x86_64",
		"os":         "ANDROID",
		"battery":    "85",
		"deviceId":   uuid.NewString(),
		"adId":       uuid.NewString(),
		"osVersion":  "13",
		"sdkVersion": "3.3.0.4-rc1",
		"model":      "Subsystem for Android(TM)",
		"brand":      "Windows",
		"hardware":   "windows_x86_64",
		"eventDate":  strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
}

type walletEnvelope struct {
	Wallet struct {
		ID      string `json:"id"`
		Balance int64  `json:"balance"`
	} `json:"wallet"`
}

type packagesEnvelope struct {
	Packages []packagePayload `json:"packages"`
}

type packagePayload struct {
	ID          any    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	FullPrice   int64  `json:"fullPrice"`
}

func (p packagePayload) toDomain() domain.Package {
	price := p.FullPrice
	if price == 0 {
		price = p.Price
	}
	var id string
	switch v := p.ID.(type) {
	case string:
		id = v
	case float64:
		id = strconv.FormatInt(int64(v), 10)
	}
	return domain.Package{ID: id, Name: p.Name, Description: p.Description, Price: price}
}

func toPackages(env packagesEnvelope) []domain.Package {
	out := make([]domain.Package, 0, len(env.Packages))
	for _, p := range env.Packages {
		out = append(out, p.toDomain())
	}
	return out
}
