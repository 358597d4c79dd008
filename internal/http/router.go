package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Rooms         *RoomHandler
	Meetings      *MeetingHandler
	Minutes       *MinuteHandler
	Attachments   *AttachmentHandler
	Notifications *NotificationHandler
	Analytics     *AnalyticsHandler
	Metrics       http.Handler
	Middleware    []func(http.Handler) http.Handler
}

// IsPublicRoute reports whether a request may be served without a bearer
// token.
func IsPublicRoute(r *http.Request) bool {
	if r == nil {
		return false
	}
	switch r.URL.Path {
	case "/healthz", "/metrics":
		return true
	case "/api/auth/login", "/api/auth/refresh":
		return r.Method == http.MethodPost
	case "/api/users/register":
		return r.Method == http.MethodPost
	case "/api/meetings/availability":
		return r.Method == http.MethodGet
	}
	return false
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/api/auth/login", postOnly(cfg.Auth.Login))
		mux.HandleFunc("/api/auth/refresh", postOnly(cfg.Auth.Refresh))
		mux.HandleFunc("/api/auth/logout", postOnly(cfg.Auth.Logout))
	}

	if cfg.Users != nil {
		mux.HandleFunc("/api/users/register", postOnly(cfg.Users.Register))
		mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.List(w, r)
			case http.MethodPost:
				cfg.Users.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/api/users/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/users/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Users.Get(w, r, id)
			case http.MethodPut:
				cfg.Users.Update(w, r, id)
			case http.MethodDelete:
				cfg.Users.Delete(w, r, id)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
		mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.GetProfile(w, r)
			case http.MethodPut:
				cfg.Users.UpdateProfile(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut)
			}
		})
	}

	if cfg.Rooms != nil {
		mux.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.List(w, r)
			case http.MethodPost:
				cfg.Rooms.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/api/rooms/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.Get(w, r, id)
			case http.MethodPut:
				cfg.Rooms.Update(w, r, id)
			case http.MethodDelete:
				cfg.Rooms.Delete(w, r, id)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Meetings != nil {
		mux.HandleFunc("/api/meetings", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Meetings.List(w, r)
			case http.MethodPost:
				cfg.Meetings.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/api/meetings/search", getOnly(cfg.Meetings.Search))
		mux.HandleFunc("/api/meetings/availability", getOnly(cfg.Meetings.Availability))
		mux.HandleFunc("/api/meetings/", func(w http.ResponseWriter, r *http.Request) {
			routeMeetingSubtree(cfg, w, r)
		})
	}

	if cfg.Minutes != nil {
		mux.HandleFunc("/api/minutes/", func(w http.ResponseWriter, r *http.Request) {
			segments := pathSegments(r.URL.Path, "/api/minutes/")
			switch {
			case len(segments) == 1:
				switch r.Method {
				case http.MethodGet:
					cfg.Minutes.Get(w, r, segments[0])
				case http.MethodPut:
					cfg.Minutes.Update(w, r, segments[0])
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPut)
				}
			case len(segments) == 2 && segments[1] == "actions":
				switch r.Method {
				case http.MethodGet:
					cfg.Minutes.ListActions(w, r, segments[0])
				case http.MethodPost:
					cfg.Minutes.AddAction(w, r, segments[0])
				default:
					methodNotAllowed(w, http.MethodGet, http.MethodPost)
				}
			default:
				http.NotFound(w, r)
			}
		})
		mux.HandleFunc("/api/actions/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/actions/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodPut:
				cfg.Minutes.UpdateAction(w, r, id)
			case http.MethodDelete:
				cfg.Minutes.DeleteAction(w, r, id)
			default:
				methodNotAllowed(w, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Attachments != nil {
		mux.HandleFunc("/api/attachments", postOnly(cfg.Attachments.Upload))
		mux.HandleFunc("/api/attachments/", func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/attachments/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			switch r.Method {
			case http.MethodGet:
				cfg.Attachments.Download(w, r, id)
			case http.MethodDelete:
				cfg.Attachments.Delete(w, r, id)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
	}

	if cfg.Notifications != nil {
		mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Notifications.List(w, r)
			case http.MethodPost:
				cfg.Notifications.Announce(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/api/notifications/unread-count", getOnly(cfg.Notifications.UnreadCount))
		mux.HandleFunc("/api/notifications/read-all", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Notifications.MarkAllRead(w, r)
		})
		mux.HandleFunc("/api/notifications/", func(w http.ResponseWriter, r *http.Request) {
			segments := pathSegments(r.URL.Path, "/api/notifications/")
			if len(segments) != 2 || segments[1] != "read" {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPut {
				methodNotAllowed(w, http.MethodPut)
				return
			}
			cfg.Notifications.MarkRead(w, r, segments[0])
		})
	}

	if cfg.Analytics != nil {
		mux.HandleFunc("/api/admin/analytics/summary", getOnly(cfg.Analytics.Summary))
		mux.HandleFunc("/api/admin/analytics/rooms", getOnly(cfg.Analytics.Rooms))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func routeMeetingSubtree(cfg RouterConfig, w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/api/meetings/")
	if len(segments) == 0 {
		http.NotFound(w, r)
		return
	}
	meetingID := segments[0]

	switch {
	case len(segments) == 1:
		switch r.Method {
		case http.MethodGet:
			cfg.Meetings.Get(w, r, meetingID)
		case http.MethodPut:
			cfg.Meetings.Update(w, r, meetingID)
		case http.MethodDelete:
			cfg.Meetings.Delete(w, r, meetingID)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	case len(segments) == 2 && segments[1] == "start":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		cfg.Meetings.Start(w, r, meetingID)
	case len(segments) == 2 && segments[1] == "end":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		cfg.Meetings.End(w, r, meetingID)
	case len(segments) == 2 && segments[1] == "cancel":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		cfg.Meetings.Cancel(w, r, meetingID)
	case len(segments) == 2 && segments[1] == "attendees":
		switch r.Method {
		case http.MethodGet:
			cfg.Meetings.ListAttendees(w, r, meetingID)
		case http.MethodPost:
			cfg.Meetings.Invite(w, r, meetingID)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case len(segments) == 3 && segments[1] == "attendees":
		switch r.Method {
		case http.MethodPut:
			cfg.Meetings.Respond(w, r, meetingID, segments[2])
		case http.MethodDelete:
			cfg.Meetings.RemoveAttendee(w, r, meetingID, segments[2])
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodDelete)
		}
	case len(segments) == 2 && segments[1] == "minutes" && cfg.Minutes != nil:
		switch r.Method {
		case http.MethodGet:
			cfg.Minutes.GetForMeeting(w, r, meetingID)
		case http.MethodPost:
			cfg.Minutes.CreateForMeeting(w, r, meetingID)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case len(segments) == 2 && segments[1] == "attachments" && cfg.Attachments != nil:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		cfg.Attachments.ListForMeeting(w, r, meetingID)
	default:
		http.NotFound(w, r)
	}
}

func pathSegments(path, prefix string) []string {
	trimmed := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func getOnly(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		handler(w, r)
	}
}

func postOnly(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		handler(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
