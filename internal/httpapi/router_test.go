package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/friendschat/chatroom/internal/ai"
	"github.com/friendschat/chatroom/internal/auth"
	"github.com/friendschat/chatroom/internal/chat"
	"github.com/friendschat/chatroom/internal/config"
	"github.com/friendschat/chatroom/internal/dao"
	"github.com/friendschat/chatroom/internal/httpapi/handlers"
	"github.com/friendschat/chatroom/internal/meeting"
	"github.com/friendschat/chatroom/internal/presence"
	"github.com/friendschat/chatroom/internal/session"
	"github.com/friendschat/chatroom/internal/users"
)

type fakeProvider struct{}

func (fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "great week", nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir, err := users.SeedDemo()
	if err != nil {
		t.Fatalf("seed users: %v", err)
	}

	channels := chat.NewStore()
	logins := dir.LoginKeys()
	if _, err := channels.Create(logins[0], "Experience Sharing", logins, false); err != nil {
		t.Fatalf("seed channel: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := dao.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	reg := ai.NewRegistry()
	reg.Register("fake", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		_ = model
		return fakeProvider{}, nil
	})
	daoSvc := dao.NewService(dao.NewRepo(gdb), reg, "fake", "")
	if err := daoSvc.SeedFounders(context.Background()); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	h := &handlers.Handler{
		Cfg:      config.Config{},
		Users:    dir,
		Sessions: session.NewStore(0),
		Channels: channels,
		Presence: presence.New(0),
		Meetings: meeting.NewRegistry(),
		Verifier: auth.StaticVerifier{},
		Dao:      daoSvc,
	}
	return NewRouter(h)
}

func doPost(t *testing.T, r *gin.Engine, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, decoded
}

func result(t *testing.T, decoded map[string]any) map[string]any {
	t.Helper()
	res, ok := decoded["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", decoded)
	}
	return res
}

func loginAndVerify(t *testing.T, r *gin.Engine, login, password string) string {
	t.Helper()
	_, decoded := doPost(t, r, "/api/auth/login", map[string]any{"login": login, "password": password})
	res := result(t, decoded)
	if res["status"] != "mfa_required" {
		t.Fatalf("expected mfa_required, got %v", res["status"])
	}
	token, _ := res["session_id"].(string)
	if token == "" {
		t.Fatalf("expected session_id in login response")
	}

	w, decoded := doPost(t, r, "/api/auth/mfa_verify", map[string]any{"session_id": token, "code": "123456"})
	if w.Code != http.StatusOK {
		t.Fatalf("mfa_verify status %d body %v", w.Code, decoded)
	}
	return token
}

func TestLoginUnknownUser(t *testing.T) {
	r := newTestRouter(t)
	w, decoded := doPost(t, r, "/api/auth/login", map[string]any{"login": "stranger", "password": "x"})
	if w.Code != http.StatusOK {
		t.Fatalf("legacy login errors are HTTP 200, got %d", w.Code)
	}
	if decoded["jsonrpc"] != "2.0" {
		t.Fatalf("expected jsonrpc envelope, got %v", decoded)
	}
	errObj := decoded["error"].(map[string]any)
	data := errObj["data"].(map[string]any)
	if data["exception_type"] != "access_denied" {
		t.Fatalf("expected access_denied, got %v", data)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	r := newTestRouter(t)
	w, decoded := doPost(t, r, "/api/auth/login", map[string]any{"login": "Saiprakash", "password": "nope"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	errObj := decoded["error"].(map[string]any)
	data := errObj["data"].(map[string]any)
	if data["message"] != "Wrong Password" {
		t.Fatalf("expected Wrong Password, got %v", data)
	}
}

func TestInvalidMFACode(t *testing.T) {
	r := newTestRouter(t)
	_, decoded := doPost(t, r, "/api/auth/login", map[string]any{"login": "Saiprakash", "password": "Sai@123"})
	token := result(t, decoded)["session_id"].(string)

	w, decoded := doPost(t, r, "/api/auth/mfa_verify", map[string]any{"session_id": token, "code": "999999"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if decoded["error"] != "Invalid MFA Code" {
		t.Fatalf("unexpected error: %v", decoded)
	}
}

func TestUnverifiedSessionIsBlocked(t *testing.T) {
	r := newTestRouter(t)
	_, decoded := doPost(t, r, "/api/auth/login", map[string]any{"login": "Saiprakash", "password": "Sai@123"})
	token := result(t, decoded)["session_id"].(string)

	w, _ := doPost(t, r, "/api/chat/join", map[string]any{"session_id": token})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before MFA, got %d", w.Code)
	}
}

func TestMissingSessionUnauthorized(t *testing.T) {
	r := newTestRouter(t)
	w, _ := doPost(t, r, "/api/chat/messages", map[string]any{"session_id": "bogus", "channel_id": 1})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestChatFlow(t *testing.T) {
	r := newTestRouter(t)
	token := loginAndVerify(t, r, "Saiprakash", "Sai@123")

	_, decoded := doPost(t, r, "/api/chat/join", map[string]any{"session_id": token})
	join := result(t, decoded)
	if join["name"] != "Experience Sharing" {
		t.Fatalf("expected default channel, got %v", join)
	}
	channelID := join["channel_id"]

	_, decoded = doPost(t, r, "/api/chat/post", map[string]any{
		"session_id": token, "channel_id": channelID, "body": "hello friends",
	})
	post := result(t, decoded)
	if post["message_id"] != float64(1) {
		t.Fatalf("expected message id 1, got %v", post)
	}

	_, decoded = doPost(t, r, "/api/chat/typing", map[string]any{
		"session_id": token, "channel_id": channelID, "is_typing": true,
	})
	if result(t, decoded)["status"] != "success" {
		t.Fatalf("typing failed: %v", decoded)
	}

	_, decoded = doPost(t, r, "/api/chat/messages", map[string]any{
		"session_id": token, "channel_id": channelID,
	})
	res := result(t, decoded)
	msgs := res["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	first := msgs[0].(map[string]any)
	if first["author"] != "Sai Prakash" || first["body"] != "hello friends" {
		t.Fatalf("unexpected message: %v", first)
	}
	typing := res["typing"].([]any)
	if len(typing) != 1 || typing[0] != "Sai Prakash" {
		t.Fatalf("expected Sai Prakash typing, got %v", typing)
	}
}

func TestNonMemberGetsForbidden(t *testing.T) {
	r := newTestRouter(t)
	vamsi := loginAndVerify(t, r, "vamsi.krishna@example.com", "Vamsi@143")
	dana := loginAndVerify(t, r, "Danarao", "Dana@123")

	_, decoded := doPost(t, r, "/api/chat/create", map[string]any{
		"session_id": vamsi, "name": "Proj", "members": []string{"Saiprakash"},
	})
	channelID := result(t, decoded)["id"]

	w, _ := doPost(t, r, "/api/chat/messages", map[string]any{"session_id": dana, "channel_id": channelID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member, got %d", w.Code)
	}
	w, _ = doPost(t, r, "/api/chat/post", map[string]any{"session_id": dana, "channel_id": channelID, "body": "hi"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-member post, got %d", w.Code)
	}
}

func TestChannelDeleteAuthorization(t *testing.T) {
	r := newTestRouter(t)
	vamsi := loginAndVerify(t, r, "vamsi.krishna@example.com", "Vamsi@143")
	sai := loginAndVerify(t, r, "Saiprakash", "Sai@123")

	_, decoded := doPost(t, r, "/api/chat/create", map[string]any{
		"session_id": vamsi, "name": "Temp", "members": []string{"Saiprakash"},
	})
	channelID := result(t, decoded)["id"]

	w, _ := doPost(t, r, "/api/chat/delete", map[string]any{"session_id": sai, "channel_id": channelID})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin delete, got %d", w.Code)
	}

	w, _ = doPost(t, r, "/api/chat/delete", map[string]any{"session_id": vamsi, "channel_id": channelID})
	if w.Code != http.StatusOK {
		t.Fatalf("admin delete failed with %d", w.Code)
	}

	w, _ = doPost(t, r, "/api/chat/messages", map[string]any{"session_id": vamsi, "channel_id": channelID})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestMessageDeleteAuthorization(t *testing.T) {
	r := newTestRouter(t)
	vamsi := loginAndVerify(t, r, "vamsi.krishna@example.com", "Vamsi@143")
	sai := loginAndVerify(t, r, "Saiprakash", "Sai@123")
	dana := loginAndVerify(t, r, "Danarao", "Dana@123")

	_, decoded := doPost(t, r, "/api/chat/post", map[string]any{
		"session_id": sai, "channel_id": 1, "body": "mine",
	})
	msgID := result(t, decoded)["message_id"]

	// Dana is neither the author nor the admin of the default channel.
	w, _ := doPost(t, r, "/api/chat/message/delete", map[string]any{
		"session_id": dana, "channel_id": 1, "message_id": msgID,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	// Vamsi is the admin.
	w, _ = doPost(t, r, "/api/chat/message/delete", map[string]any{
		"session_id": vamsi, "channel_id": 1, "message_id": msgID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("admin message delete failed with %d", w.Code)
	}

	w, _ = doPost(t, r, "/api/chat/message/delete", map[string]any{
		"session_id": vamsi, "channel_id": 1, "message_id": msgID,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for already-deleted message, got %d", w.Code)
	}
}

func TestPresenceAndMeeting(t *testing.T) {
	r := newTestRouter(t)
	token := loginAndVerify(t, r, "Saiprakash", "Sai@123")

	_, decoded := doPost(t, r, "/api/chat/meeting/start", map[string]any{
		"session_id": token, "channel_id": 1, "url": "https://meet.example/room",
	})
	if result(t, decoded)["status"] != "success" {
		t.Fatalf("meeting start failed: %v", decoded)
	}

	_, decoded = doPost(t, r, "/api/chat/presence", map[string]any{"session_id": token, "channel_id": 1})
	res := result(t, decoded)
	online := res["online"].([]any)
	if len(online) != 1 || online[0] != "Sai Prakash" {
		t.Fatalf("expected self online, got %v", online)
	}
	meetingInfo := res["meeting"].(map[string]any)
	if meetingInfo["meeting_url"] != "https://meet.example/room" || meetingInfo["started_by"] != "Sai Prakash" {
		t.Fatalf("unexpected meeting info: %v", meetingInfo)
	}
}

func TestDaoEndpoints(t *testing.T) {
	r := newTestRouter(t)
	token := loginAndVerify(t, r, "vamsi.krishna@example.com", "Vamsi@143")

	_, decoded := doPost(t, r, "/api/dao/award", map[string]any{
		"session_id": token, "to": "Dana Rao", "amount": 250, "reason": "QA",
	})
	award := result(t, decoded)
	if award["status"] != "success" || award["block"] != float64(4) {
		t.Fatalf("unexpected award response: %v", award)
	}

	_, decoded = doPost(t, r, "/api/dao/cap_table", map[string]any{"session_id": token})
	rows := decoded["result"].([]any)
	if len(rows) != 3 {
		t.Fatalf("expected 3 cap table rows, got %d", len(rows))
	}
	top := rows[0].(map[string]any)
	if top["name"] != "Vamsi Krishna" || top["shares"] != float64(1000) {
		t.Fatalf("unexpected top holder: %v", top)
	}

	_, decoded = doPost(t, r, "/api/dao/summary", map[string]any{"session_id": token})
	if result(t, decoded)["summary"] != "great week" {
		t.Fatalf("unexpected summary: %v", decoded)
	}
}

func TestAPIRouteNotFound(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/nope", bytes.NewReader([]byte("{}")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
