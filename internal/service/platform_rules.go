package service

import (
	"fmt"
	"unicode/utf8"

	"github.com/maheshrc27/postflow/internal/models"
)

type platformRule struct {
	RequiresMedia    bool
	RequiresVideo    bool
	VideoMustBeAlone bool
	MaxMedia         int
	MaxContentLength int
}

var platformRules = map[string]platformRule{
	models.PlatformFacebook: {
		VideoMustBeAlone: true,
		MaxMedia:         10,
		MaxContentLength: 63206,
	},
	models.PlatformInstagram: {
		RequiresMedia:    true,
		MaxMedia:         10,
		MaxContentLength: 2200,
	},
	models.PlatformZalo: {
		MaxMedia:         20,
		MaxContentLength: 100000,
	},
	models.PlatformTiktok: {
		RequiresMedia:    true,
		VideoMustBeAlone: true,
		MaxMedia:         35,
		MaxContentLength: 2200,
	},
	models.PlatformYoutube: {
		RequiresMedia:    true,
		RequiresVideo:    true,
		VideoMustBeAlone: true,
		MaxMedia:         1,
		MaxContentLength: 5000,
	},
}

func SupportedProvider(platform string) bool {
	_, ok := platformRules[platform]
	return ok
}

// checkPlatformRule returns the blocking problems of publishing content and
// media to one provider.
func checkPlatformRule(platform, content string, media []models.MediaItem) []string {
	rule, ok := platformRules[platform]
	if !ok {
		return []string{fmt.Sprintf("unsupported provider %q", platform)}
	}

	var problems []string
	videos := 0
	for _, m := range media {
		switch m.Kind {
		case models.MediaKindVideo:
			videos++
		case models.MediaKindImage:
		default:
			problems = append(problems, fmt.Sprintf("%s does not accept media %s of unknown type", platform, m.URL))
		}
	}

	if rule.RequiresMedia && len(media) == 0 {
		problems = append(problems, fmt.Sprintf("%s requires at least one image or video", platform))
	}
	if rule.RequiresVideo && videos == 0 {
		problems = append(problems, fmt.Sprintf("%s requires a video", platform))
	}
	if rule.VideoMustBeAlone && videos > 0 && len(media) > 1 {
		problems = append(problems, fmt.Sprintf("%s cannot combine a video with other media", platform))
	}
	if rule.MaxMedia > 0 && len(media) > rule.MaxMedia {
		problems = append(problems, fmt.Sprintf("%s accepts at most %d media items, got %d", platform, rule.MaxMedia, len(media)))
	}
	if n := utf8.RuneCountInString(content); rule.MaxContentLength > 0 && n > rule.MaxContentLength {
		problems = append(problems, fmt.Sprintf("%s content is limited to %d characters, got %d", platform, rule.MaxContentLength, n))
	}
	return problems
}
