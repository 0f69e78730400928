package audit

import "strings"

// ActionResource holds action and resource derived from an HTTP route.
type ActionResource struct {
	Action   string
	Resource string
}

// Routes whose action is not derivable from the HTTP verb.
var routeOverrides = map[string]ActionResource{
	"POST /signup":             {Action: "signup", Resource: "user"},
	"GET /confirm":             {Action: "confirm", Resource: "user"},
	"POST /resendconfirmation": {Action: "resend_confirmation", Resource: "user"},
	"POST /login":              {Action: "login", Resource: "session"},
	"POST /logout":             {Action: "logout", Resource: "session"},
	"GET /me":                  {Action: "get", Resource: "user"},
	"POST /admin/rollover":     {Action: "rollover", Resource: "session"},
}

// ParseRoute returns action and resource for an HTTP method and chi route pattern (e.g. "GET", "/users/{id}").
// Action is a verb derived from the method; resource is the first path segment, singularized.
func ParseRoute(method, pattern string) ActionResource {
	method = strings.ToUpper(method)
	if ar, ok := routeOverrides[method+" "+pattern]; ok {
		return ar
	}
	seg := strings.Trim(pattern, "/")
	if i := strings.Index(seg, "/"); i >= 0 {
		seg = seg[:i]
	}
	resource := "unknown"
	if seg != "" && !strings.HasPrefix(seg, "{") {
		resource = strings.TrimSuffix(strings.ToLower(seg), "s")
	}
	return ActionResource{Action: methodToAction(method), Resource: resource}
}

func methodToAction(method string) string {
	switch method {
	case "GET", "HEAD":
		return "get"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return strings.ToLower(method)
	}
}
