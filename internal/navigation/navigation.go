// Package navigation decides which page a viewer sees for a path and which
// menu entries they are offered.
package navigation

import (
	"strings"
)

type Access int

const (
	Public Access = iota
	// GuestOnly pages send signed-in viewers to their landing page.
	GuestOnly
	// Member pages need a profile and are off limits to admins.
	Member
	Admin
)

const (
	PathLogin = "/login"
	PathJoin  = "/join"
	PathHome  = "/"
	PathAdmin = "/admin"

	PageNotFound = "not_found"

	maxRedirects = 8
)

type Route struct {
	Pattern string
	Page    string
	Access  Access
}

// Table is every client route. A pattern ending in "/*" matches the prefix
// and everything below it.
var Table = []Route{
	{Pattern: PathLogin, Page: "login", Access: GuestOnly},
	{Pattern: PathJoin, Page: "join", Access: GuestOnly},
	{Pattern: "/admin/*", Page: "admin", Access: Admin},
	{Pattern: PathHome, Page: "home", Access: Member},
	{Pattern: "/records/*", Page: "records", Access: Member},
	{Pattern: "/mypage", Page: "mypage", Access: Member},
	{Pattern: "/community/*", Page: "community", Access: Member},
	{Pattern: "/beta/*", Page: "beta", Access: Member},
	{Pattern: "/gymlist/*", Page: "gymlist", Access: Member},
	{Pattern: "/guide/*", Page: "guide", Access: Member},
}

type Viewer struct {
	HasProfile bool `json:"has_profile"`
	IsAdmin    bool `json:"is_admin"`
}

type Decision struct {
	Path      string   `json:"path"`
	Page      string   `json:"page"`
	Redirects []string `json:"redirects"`
}

func (d Decision) Redirected() bool {
	return len(d.Redirects) > 0
}

func (r Route) matches(path string) bool {
	if prefix, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == r.Pattern
}

func normalize(path string) string {
	path, _, _ = strings.Cut(path, "?")
	path, _, _ = strings.Cut(path, "#")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

func lookup(path string) (Route, bool) {
	for _, route := range Table {
		if route.matches(path) {
			return route, true
		}
	}
	return Route{}, false
}

// landing is where a signed-in viewer belongs.
func landing(v Viewer) string {
	if v.IsAdmin {
		return PathAdmin
	}
	return PathHome
}

// step returns the redirect target for one hop, or "" when the page renders.
func step(v Viewer, route Route) string {
	switch route.Access {
	case GuestOnly:
		if !v.HasProfile {
			return ""
		}
		if route.Pattern == PathJoin {
			return PathHome
		}
		return landing(v)
	case Admin:
		if v.IsAdmin {
			return ""
		}
		return PathHome
	case Member:
		if !v.HasProfile {
			return PathLogin
		}
		if v.IsAdmin {
			return PathAdmin
		}
		return ""
	default:
		return ""
	}
}

// Resolve follows redirects from path until a page renders.
func Resolve(v Viewer, path string) Decision {
	current := normalize(path)
	decision := Decision{Redirects: []string{}}

	for hop := 0; hop <= maxRedirects; hop++ {
		route, ok := lookup(current)
		if !ok {
			decision.Path, decision.Page = current, PageNotFound
			return decision
		}
		next := step(v, route)
		if next == "" || next == current {
			decision.Path, decision.Page = current, route.Page
			return decision
		}
		decision.Redirects = append(decision.Redirects, next)
		current = next
	}

	decision.Path, decision.Page = current, PageNotFound
	return decision
}

type MenuItem struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Action string `json:"action,omitempty"`
}

type Menu struct {
	Header []MenuItem `json:"header"`
	Bottom []MenuItem `json:"bottom"`
}

// MenuFor lists the header and bottom navigation for the viewer.
func MenuFor(v Viewer) Menu {
	switch {
	case !v.HasProfile:
		return Menu{
			Header: []MenuItem{
				{Label: "로그인", Path: PathLogin},
				{Label: "회원가입", Path: PathJoin},
			},
			Bottom: []MenuItem{},
		}
	case v.IsAdmin:
		return Menu{
			Header: []MenuItem{
				{Label: "관리자", Path: PathAdmin},
				{Label: "로그아웃", Path: PathHome, Action: "logout"},
			},
			Bottom: []MenuItem{},
		}
	default:
		return Menu{
			Header: []MenuItem{
				{Label: "실시간 암장 혼잡도", Path: "/gymlist"},
				{Label: "기록", Path: "/records"},
				{Label: "커뮤니티", Path: "/community"},
				{Label: "가이드", Path: "/guide"},
				{Label: "마이페이지", Path: "/mypage"},
				{Label: "로그아웃", Path: PathHome, Action: "logout"},
			},
			Bottom: []MenuItem{
				{Label: "홈", Path: PathHome},
				{Label: "기록", Path: "/records"},
				{Label: "새 기록", Path: "/records/new"},
				{Label: "마이", Path: "/mypage"},
			},
		}
	}
}
