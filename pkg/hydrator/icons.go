package hydrator

import (
	"strings"

	"ramo-hub-backend/pkg/models"
)

// DefaultIcon is used for empty or unknown icon names
const DefaultIcon models.Icon = "users"

// icons maps stored icon names (any case, with or without separators) to
// the handle the console renders
var icons = map[string]models.Icon{
	"users":         "users",
	"cpu":           "cpu",
	"zap":           "zap",
	"radio":         "radio",
	"globe":         "globe",
	"heart":         "heart",
	"rocket":        "rocket",
	"bookopen":      "book-open",
	"wrench":        "wrench",
	"lightbulb":     "lightbulb",
	"code":          "code",
	"award":         "award",
	"briefcase":     "briefcase",
	"calendar":      "calendar",
	"megaphone":     "megaphone",
	"graduationcap": "graduation-cap",
	"bot":           "bot",
	"satellite":     "satellite",
	"battery":       "battery",
	"sun":           "sun",
	"leaf":          "leaf",
	"github":        "github",
	"figma":         "figma",
	"drive":         "hard-drive",
	"harddrive":     "hard-drive",
	"slack":         "message-square",
	"messagesquare": "message-square",
	"folder":        "folder",
	"link":          "link",
}

// IconFor resolves an icon name; unknown names fall back to DefaultIcon
func IconFor(name string) models.Icon {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if icon, ok := icons[key]; ok {
		return icon
	}
	return DefaultIcon
}
