package notify

// Key identifies a catalog message.
type Key string

const (
	KeyUnauthorized  Key = "http.unauthorized"
	KeyForbidden     Key = "http.forbidden"
	KeyNotFound      Key = "http.not_found"
	KeyServerError   Key = "http.server_error"
	KeyRequestFailed Key = "http.request_failed"
	KeyUnreachable   Key = "http.unreachable"
	KeyRejected      Key = "api.rejected"
	KeyLoggedIn      Key = "session.logged_in"
	KeyLoggedOut     Key = "session.logged_out"
	KeyLoginRequired Key = "route.login_required"
	KeyAccessDenied  Key = "route.access_denied"
)

// DefaultLocale is used when the configured locale has no catalog.
const DefaultLocale = "zh-CN"

var catalog = map[string]map[Key]string{
	"zh-CN": {
		KeyUnauthorized:  "认证失败，请重新登录",
		KeyForbidden:     "权限不足",
		KeyNotFound:      "请求的资源不存在",
		KeyServerError:   "服务器内部错误",
		KeyRequestFailed: "网络错误",
		KeyUnreachable:   "网络连接失败",
		KeyRejected:      "操作失败",
		KeyLoggedIn:      "登录成功",
		KeyLoggedOut:     "已退出登录",
		KeyLoginRequired: "请先登录",
		KeyAccessDenied:  "没有访问该页面的权限",
	},
	"en-US": {
		KeyUnauthorized:  "Authentication failed, please log in again",
		KeyForbidden:     "Permission denied",
		KeyNotFound:      "The requested resource does not exist",
		KeyServerError:   "Internal server error",
		KeyRequestFailed: "Network error",
		KeyUnreachable:   "Network connection failed",
		KeyRejected:      "Operation failed",
		KeyLoggedIn:      "Logged in",
		KeyLoggedOut:     "Logged out",
		KeyLoginRequired: "Please log in first",
		KeyAccessDenied:  "You do not have access to this page",
	},
}
