package navigation

import (
	"testing"
)

var (
	anonymous = Viewer{}
	member    = Viewer{HasProfile: true}
	admin     = Viewer{HasProfile: true, IsAdmin: true}
)

func TestAnonymousViewerIsSentToLoginFromProtectedPaths(t *testing.T) {
	for _, path := range []string{"/", "/records", "/records/12/edit", "/mypage", "/community/3", "/beta", "/gymlist", "/guide/moves", "/admin", "/admin/users"} {
		decision := Resolve(anonymous, path)
		if decision.Path != PathLogin || decision.Page != "login" {
			t.Fatalf("%s: expected login, got %+v", path, decision)
		}
	}
}

func TestAdminOnMemberPathsLandsOnDashboard(t *testing.T) {
	for _, path := range []string{"/", "/records/new", "/mypage", "/login"} {
		decision := Resolve(admin, path)
		if decision.Path != PathAdmin || decision.Page != "admin" {
			t.Fatalf("%s: expected admin dashboard, got %+v", path, decision)
		}
	}
	if decision := Resolve(admin, "/admin/gyms"); decision.Redirected() || decision.Page != "admin" {
		t.Fatalf("expected admin route to render, got %+v", decision)
	}
}

func TestMemberRouting(t *testing.T) {
	cases := map[string]string{
		"/":            "home",
		"/records/5":   "records",
		"/community":   "community",
		"/beta/new":    "beta",
		"/guide":       "guide",
		"/admin":       "home",
		"/login":       "home",
		"/join":        "home",
		"/gymlist/":    "gymlist",
		"/mypage?x=1":  "mypage",
		"/nowhere":     PageNotFound,
		"/recordsfake": PageNotFound,
	}
	for path, page := range cases {
		if got := Resolve(member, path); got.Page != page {
			t.Fatalf("%s: expected page %q, got %+v", path, page, got)
		}
	}
}

func TestGuestPagesRenderForAnonymous(t *testing.T) {
	for _, path := range []string{"/login", "/join"} {
		if decision := Resolve(anonymous, path); decision.Redirected() || decision.Path != path {
			t.Fatalf("%s: expected guest page to render, got %+v", path, decision)
		}
	}
}

func TestRedirectChainIsRecorded(t *testing.T) {
	decision := Resolve(anonymous, "/admin")
	if len(decision.Redirects) != 2 || decision.Redirects[0] != PathHome || decision.Redirects[1] != PathLogin {
		t.Fatalf("expected /admin -> / -> /login, got %v", decision.Redirects)
	}
}

func TestMenuFor(t *testing.T) {
	if menu := MenuFor(anonymous); len(menu.Header) != 2 || menu.Header[0].Path != PathLogin {
		t.Fatalf("unexpected anonymous menu %+v", menu)
	}
	memberMenu := MenuFor(member)
	if len(memberMenu.Bottom) != 4 || memberMenu.Bottom[2].Path != "/records/new" {
		t.Fatalf("unexpected member bottom nav %+v", memberMenu.Bottom)
	}
	if last := memberMenu.Header[len(memberMenu.Header)-1]; last.Action != "logout" {
		t.Fatalf("expected logout entry last, got %+v", last)
	}
	if menu := MenuFor(admin); menu.Header[0].Path != PathAdmin {
		t.Fatalf("unexpected admin menu %+v", menu)
	}
}
