package wikipedia

import (
	"net/url"
	"strconv"

	"github.com/matzehuels/wikiviewer/pkg/errors"
)

// DefaultEndpoint is the English Wikipedia action API.
const DefaultEndpoint = "https://en.wikipedia.org/w/api.php"

// DefaultExtractChars bounds the plain-text extract of a random article.
const DefaultExtractChars = 300

// Action names one of the request shapes the client knows how to build.
type Action string

// The closed set of actions.
const (
	ActionSearch         Action = "search"
	ActionInfoFromTitles Action = "infoFromTitles"
	ActionRandom         Action = "random"
	ActionInfoFromID     Action = "infoFromId"
)

// requestTemplate describes the query parameters of one action.
// criteria names the parameter that receives the caller's criteria;
// empty means the action takes none. extract adds the exchars budget.
type requestTemplate struct {
	params   map[string]string
	criteria string
	extract  bool
}

var requestTemplates = map[Action]requestTemplate{
	ActionSearch: {
		params:   map[string]string{"action": "query", "list": "search"},
		criteria: "srsearch",
	},
	ActionInfoFromTitles: {
		params:   map[string]string{"action": "query", "prop": "info", "inprop": "url"},
		criteria: "titles",
	},
	ActionRandom: {
		params: map[string]string{"action": "query", "list": "random", "rnnamespace": "0", "rnlimit": "1"},
	},
	ActionInfoFromID: {
		params:   map[string]string{"action": "query", "prop": "extracts|info", "explaintext": "1", "inprop": "url"},
		criteria: "pageids",
		extract:  true,
	},
}

// Actions returns the supported actions in a stable order.
func Actions() []Action {
	return []Action{ActionSearch, ActionInfoFromTitles, ActionRandom, ActionInfoFromID}
}

// BuildRequest returns the request URL for action against [DefaultEndpoint]
// with criteria substituted into the action's criteria parameter.
//
// It has no side effects: the same arguments always produce the same URL.
// An unknown action yields an INVALID_ACTION error.
func BuildRequest(action Action, criteria string) (string, error) {
	return buildRequest(DefaultEndpoint, DefaultExtractChars, action, criteria)
}

func buildRequest(endpoint string, extractChars int, action Action, criteria string) (string, error) {
	tmpl, ok := requestTemplates[action]
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidAction, "unknown action %q", action)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse endpoint")
	}

	q := url.Values{}
	for k, v := range tmpl.params {
		q.Set(k, v)
	}
	if tmpl.criteria != "" {
		q.Set(tmpl.criteria, criteria)
	}
	if tmpl.extract {
		q.Set("exchars", strconv.Itoa(extractChars))
	}
	q.Set("format", "json")

	// Encode sorts by key, which keeps the URL deterministic.
	u.RawQuery = q.Encode()
	return u.String(), nil
}
