package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"aura/config"
	"aura/database"
	"aura/handlers"
	"aura/media"
	"aura/push"
	"aura/routes"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVideos struct {
	mu       sync.Mutex
	uploads  []string
	deleted  []string
	failNext bool
}

func (f *fakeVideos) UploadVideo(_ context.Context, r io.Reader, ownerID string) (media.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return media.Upload{}, fmt.Errorf("host unavailable")
	}
	if _, err := io.ReadAll(r); err != nil {
		return media.Upload{}, err
	}
	id := fmt.Sprintf("aura/reels/%s_%d", ownerID, len(f.uploads))
	f.uploads = append(f.uploads, id)
	return media.Upload{URL: "https://cdn.test/" + id + ".mp4", PublicID: id}, nil
}

func (f *fakeVideos) DeleteVideo(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, publicID)
	return nil
}

type event struct {
	userID string
	name   string
	from   string
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) Notify(userID, name string, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	from, _ := payload["from"].(string)
	r.events = append(r.events, event{userID: userID, name: name, from: from})
}

func (r *recorder) all() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

type testEnv struct {
	t      *testing.T
	h      *handlers.Handler
	router *gin.Engine
	store  *database.MemoryStore
	videos *fakeVideos
	notes  *recorder
}

type session struct {
	id     string
	cookie *http.Cookie
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Env:                config.TestEnv,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		AllowedOrigins:     "http://localhost:5173",
		ReelMaxBytes:       1 << 20,
		ImageMaxBytes:      1 << 20,
		RateLimitPerMinute: 1000,
	}
	store := database.NewMemoryStore()
	videos := &fakeVideos{}
	notes := &recorder{}
	sender := push.NewSender(store, push.Keys{}, "")

	h := handlers.New(cfg, store, videos, sender, notes)
	return &testEnv{
		t:      t,
		h:      h,
		router: routes.SetupRouter(cfg, h, nil),
		store:  store,
		videos: videos,
		notes:  notes,
	}
}

func (e *testEnv) serve(req *http.Request, s *session) *httptest.ResponseRecorder {
	if s != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) json(method, path string, body interface{}, s *session) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return e.serve(req, s)
}

type filePart struct {
	field       string
	contentType string
	data        []byte
}

func (e *testEnv) multipart(method, path string, fields map[string]string, file *filePart, s *session) *httptest.ResponseRecorder {
	e.t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if file != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="upload"`, file.field))
		h.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(e.t, err)
		_, err = part.Write(file.data)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.serve(req, s)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	return nil
}

// signup registers and logs in a user.
func (e *testEnv) signup(username string) *session {
	e.t.Helper()
	w := e.json(http.MethodPost, "/register", map[string]string{
		"username": username, "email": username + "@aura.test", "password": "pw-" + username,
	}, nil)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())

	w = e.json(http.MethodPost, "/login", map[string]string{
		"email": username + "@aura.test", "password": "pw-" + username,
	}, nil)
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())

	cookie := sessionCookie(w)
	require.NotNil(e.t, cookie)
	user := decode(e.t, w)["user"].(map[string]interface{})
	return &session{id: user["_id"].(string), cookie: cookie}
}

func (e *testEnv) uploadPost(s *session, caption string) string {
	e.t.Helper()
	w := e.multipart(http.MethodPost, "/uploadPost",
		map[string]string{"userId": s.id, "caption": caption},
		&filePart{field: "file", contentType: "image/png", data: pngHeader}, s)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode(e.t, w)["post"].(map[string]interface{})["_id"].(string)
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// assertImageBytes checks the Node Buffer shape the web client reads image
// bytes from.
func assertImageBytes(t *testing.T, field interface{}, contentType string, want []byte) {
	t.Helper()
	media, ok := field.(map[string]interface{})
	require.True(t, ok, "image is %T", field)
	assert.Equal(t, contentType, media["contentType"])

	buffer, ok := media["data"].(map[string]interface{})
	require.True(t, ok, "image data is %T", media["data"])
	assert.Equal(t, "Buffer", buffer["type"])

	raw := buffer["data"].([]interface{})
	got := make([]byte, len(raw))
	for i, v := range raw {
		got[i] = byte(v.(float64))
	}
	assert.Equal(t, want, got)
}

var mp4Header = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2', 0x00, 0x00, 0x00, 0x00, 'm', 'p', '4', '2', 'i', 's', 'o', 'm'}

const missingID = "65a1b2c3d4e5f60718293a4b"

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	e := newEnv(t)
	body := map[string]string{"username": "alice", "email": "alice@aura.test", "password": "secret"}

	w := e.json(http.MethodPost, "/register", body, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	body["username"] = "alice2"
	w = e.json(http.MethodPost, "/register", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", decode(t, w)["message"])

	users, err := e.store.SearchUsernames(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	w := e.json(http.MethodPost, "/register", map[string]string{"username": "alice", "email": "alice@aura.test"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.signup("alice")
	w = e.json(http.MethodPost, "/register", map[string]string{"username": "alice", "email": "other@aura.test", "password": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Username already taken", decode(t, w)["message"])
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	e.signup("alice")

	w := e.json(http.MethodPost, "/login", map[string]string{"email": "alice@aura.test", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid password", decode(t, w)["message"])
	assert.Nil(t, sessionCookie(w))

	w = e.json(http.MethodPost, "/login", map[string]string{"email": "nobody@aura.test", "password": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid email", decode(t, w)["message"])

	w = e.json(http.MethodPost, "/login", map[string]string{"email": "alice@aura.test", "password": "pw-alice"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	out := decode(t, w)
	assert.NotEmpty(t, out["token"])
	user := out["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "password")
	assert.Equal(t, "enter your bio here ...", user["bio"])
}

func TestMeAndLogout(t *testing.T) {
	e := newEnv(t)

	w := e.json(http.MethodGet, "/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"user":null}`, w.Body.String())

	alice := e.signup("alice")
	w = e.json(http.MethodGet, "/me", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", decode(t, w)["user"].(map[string]interface{})["username"])

	forged := &session{cookie: &http.Cookie{Name: "token", Value: "forged"}}
	w = e.json(http.MethodGet, "/me", nil, forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.json(http.MethodPost, "/logout", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
	cleared := sessionCookie(w)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	e := newEnv(t)
	w := e.json(http.MethodGet, "/getPosts?userId="+missingID, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostLifecycle(t *testing.T) {
	e := newEnv(t)
	u := e.signup("alice")

	postID := e.uploadPost(u, "hi")

	w := e.json(http.MethodGet, "/getPosts?userId="+u.id, nil, u)
	require.Equal(t, http.StatusOK, w.Code)
	posts := decode(t, w)["posts"].([]interface{})
	require.Len(t, posts, 1)
	post := posts[0].(map[string]interface{})
	assert.Equal(t, "hi", post["caption"])
	assert.EqualValues(t, 0, post["likes"])
	assertImageBytes(t, post["image"], "image/png", pngHeader)

	likePath := fmt.Sprintf("/like?postId=%s&Id=%s", postID, u.id)
	w = e.json(http.MethodPut, likePath, nil, u)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.EqualValues(t, 1, out["likes"])
	assert.Equal(t, true, out["isLiked"])

	w = e.json(http.MethodGet, fmt.Sprintf("/isLiked?postId=%s&Id=%s", postID, u.id), nil, u)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"isliked":true,"likes":1}`, w.Body.String())

	w = e.json(http.MethodPut, likePath, nil, u)
	require.Equal(t, http.StatusOK, w.Code)
	out = decode(t, w)
	assert.EqualValues(t, 0, out["likes"])
	assert.Equal(t, false, out["isLiked"])

	w = e.json(http.MethodGet, "/getPost/"+u.id, nil, u)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["posts"].([]interface{}), 1)

	w = e.json(http.MethodDelete, "/deletePost?postId="+postID, nil, u)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.json(http.MethodGet, "/getPosts?userId="+u.id, nil, u)
	assert.Empty(t, decode(t, w)["posts"].([]interface{}))
}

func TestUploadPostRequiresFile(t *testing.T) {
	e := newEnv(t)
	u := e.signup("alice")

	w := e.multipart(http.MethodPost, "/uploadPost", map[string]string{"caption": "hi"}, nil, u)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", decode(t, w)["error"])
}

func TestActingUserMustMatchSession(t *testing.T) {
	e := newEnv(t)
	alice := e.signup("alice")
	bob := e.signup("bob")
	postID := e.uploadPost(alice, "hi")

	w := e.json(http.MethodPut, fmt.Sprintf("/like?postId=%s&Id=%s", postID, alice.id), nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.json(http.MethodPost, "/follow", map[string]string{"user1": alice.id, "user2": bob.id}, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.json(http.MethodDelete, "/deletePost/"+postID, nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// omitting the acting id falls back to the session user
	w = e.json(http.MethodPut, "/like?postId="+postID, nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["likes"])
}

func TestAddCommentValidation(t *testing.T) {
	e := newEnv(t)
	u := e.signup("alice")
	postID := e.uploadPost(u, "hi")

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing postId", map[string]string{"userId": u.id, "text": "nice"}},
		{"missing userId", map[string]string{"postId": postID, "text": "nice"}},
		{"missing text", map[string]string{"postId": postID, "userId": u.id}},
		{"blank text", map[string]string{"postId": postID, "userId": u.id, "text": "   "}},
		{"too long", map[string]string{"postId": postID, "userId": u.id, "text": string(long)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.json(http.MethodPost, "/addComment", tt.body, u)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	w := e.json(http.MethodGet, "/getComment?postId="+postID, nil, u)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["comments"].([]interface{}))

	w = e.json(http.MethodPost, "/addComment", map[string]string{"postId": postID, "userId": u.id, "text": "nice"}, u)
	require.Equal(t, http.StatusCreated, w.Code)
	out := decode(t, w)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "nice", out["comment"].(map[string]interface{})["text"])

	w = e.json(http.MethodGet, "/getComment?postId="+postID, nil, u)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode(t, w)["comments"].([]interface{})
	require.Len(t, comments, 1)
	author := comments[0].(map[string]interface{})["userId"].(map[string]interface{})
	assert.Equal(t, u.id, author["_id"])
	assert.Equal(t, "alice", author["username"])

	w = e.json(http.MethodPost, "/addComment", map[string]string{"postId": missingID, "userId": u.id, "text": "nice"}, u)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFollowRules(t *testing.T) {
	e := newEnv(t)
	alice := e.signup("alice")
	bob := e.signup("bob")

	w := e.json(http.MethodPost, "/follow", map[string]string{"user1": alice.id, "user2": bob.id}, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Followed successfully"}`, w.Body.String())

	w = e.json(http.MethodPost, "/follow", map[string]string{"user1": alice.id, "user2": bob.id}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Already following", decode(t, w)["error"])

	w = e.json(http.MethodPost, "/follow", map[string]string{"user1": alice.id, "user2": alice.id}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.json(http.MethodPost, "/follow", map[string]string{"user1": alice.id, "user2": missingID}, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// bob never followed alice
	w = e.json(http.MethodPost, "/unfollow", map[string]string{"user1": bob.id, "user2": alice.id}, bob)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.json(http.MethodGet, "/getUser/"+alice.id, nil, alice)
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Len(t, user["isFollowing"], 1)
	assert.Empty(t, user["followedBy"])

	w = e.json(http.MethodPost, "/unfollow", map[string]string{"user1": alice.id, "user2": bob.id}, alice)
	require.Equal(t, http.StatusOK, w.Code)

	w = e.json(http.MethodGet, "/getUser/"+bob.id, nil, alice)
	assert.Empty(t, decode(t, w)["user"].(map[string]interface{})["followedBy"])
}

func TestDeleteMissingRecordsIs404(t *testing.T) {
	e := newEnv(t)
	u := e.signup("alice")

	for _, path := range []string{
		"/deletePost?postId=" + missingID,
		"/deletePost/" + missingID,
		"/deletePost/not-an-id",
		"/deleteReel/" + missingID,
		"/deleteReel/not-an-id",
	} {
		w := e.json(http.MethodDelete, path, nil, u)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestReelLifecycle(t *testing.T) {
	e := newEnv(t)
	alice := e.signup("alice")
	bob := e.signup("bob")

	w := e.multipart(http.MethodPost, "/upload-reel",
		map[string]string{"userId": alice.id, "caption": "clip"},
		&filePart{field: "video", contentType: "video/mp4", data: mp4Header}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reel := decode(t, w)["reel"].(map[string]interface{})
	reelID := reel["_id"].(string)
	assert.Contains(t, reel["videoUrl"], "https://cdn.test/")
	assert.NotContains(t, reel, "publicId")
	require.Len(t, e.videos.uploads, 1)

	w = e.json(http.MethodGet, "/getReels", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["reels"].([]interface{}), 1)

	w = e.json(http.MethodGet, "/getReels?userId="+bob.id, nil, bob)
	assert.Empty(t, decode(t, w)["reels"].([]interface{}))

	w = e.json(http.MethodPost, "/likeReel", map[string]string{"reelId": reelID, "Id": bob.id}, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"likes":1,"isLiked":true}`, w.Body.String())

	w = e.json(http.MethodGet, fmt.Sprintf("/isLikedReel?reelId=%s&Id=%s", reelID, bob.id), nil, bob)
	assert.JSONEq(t, `{"isliked":true,"likes":1}`, w.Body.String())

	w = e.json(http.MethodPost, "/likeReel", map[string]string{"reelId": reelID, "Id": bob.id}, bob)
	assert.JSONEq(t, `{"success":true,"likes":0,"isLiked":false}`, w.Body.String())

	w = e.json(http.MethodPost, "/addReelComment", map[string]string{"reelId": reelID, "userId": bob.id, "text": "cool"}, bob)
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.json(http.MethodPost, "/addReelComment", map[string]string{"reelId": reelID, "text": "cool"}, bob)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.json(http.MethodGet, "/getReelComment?reelId="+reelID, nil, alice)
	comments := decode(t, w)["comments"].([]interface{})
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].(map[string]interface{})["userId"].(map[string]interface{})["username"])

	w = e.json(http.MethodDelete, "/deleteReel/"+reelID, nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.json(http.MethodDelete, "/deleteReel/"+reelID, nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, e.videos.uploads, e.videos.deleted)

	w = e.json(http.MethodDelete, "/deleteReel/"+reelID, nil, alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadReelRejects(t *testing.T) {
	e := newEnv(t)
	u := e.signup("alice")

	w := e.multipart(http.MethodPost, "/upload-reel", map[string]string{"caption": "x"},
		&filePart{field: "video", contentType: "image/png", data: pngHeader}, u)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Only video files are allowed", decode(t, w)["error"])

	w = e.multipart(http.MethodPost, "/upload-reel", map[string]string{"caption": "x"}, nil, u)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	e.videos.failNext = true
	w = e.multipart(http.MethodPost, "/upload-reel", map[string]string{"caption": "x"},
		&filePart{field: "video", contentType: "video/mp4", data: mp4Header}, u)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	reels, err := e.store.ListReels(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, reels)
}

func TestNotificationsGoToOwner(t *testing.T) {
	e := newEnv(t)
	alice := e.signup("alice")
	bob := e.signup("bob")
	postID := e.uploadPost(alice, "hi")

	e.json(http.MethodPut, "/like?postId="+postID, nil, alice)
	assert.Empty(t, e.notes.all())

	e.json(http.MethodPut, "/like?postId="+postID, nil, bob)
	e.json(http.MethodPost, "/addComment", map[string]string{"postId": postID, "userId": bob.id, "text": "nice"}, bob)
	e.json(http.MethodPost, "/follow", map[string]string{"user1": bob.id, "user2": alice.id}, bob)

	events := e.notes.all()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, alice.id, ev.userID)
		assert.Equal(t, "bob", ev.from)
	}
	assert.Equal(t, "post_liked", events[0].name)
	assert.Equal(t, "post_commented", events[1].name)
	assert.Equal(t, "followed", events[2].name)
}

func TestUpdateProfile(t *testing.T) {
	e := newEnv(t)
	u := e.signup("alice")

	w := e.multipart(http.MethodPut, "/updateprofile", map[string]string{"userId": u.id, "bio": "hello there", "fullname": ""}, nil, u)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "hello there", user["bio"])
	assert.Equal(t, "", user["fullname"])

	w = e.multipart(http.MethodPut, "/updateprofile", map[string]string{"fullname": "Alice A."},
		&filePart{field: "profilePic", contentType: "image/png", data: pngHeader}, u)
	require.Equal(t, http.StatusOK, w.Code)
	user = decode(t, w)["user"].(map[string]interface{})
	assert.Equal(t, "hello there", user["bio"])
	assert.Equal(t, "Alice A.", user["fullname"])
	assertImageBytes(t, user["profilePic"], "image/png", pngHeader)
}

func TestGetUsersByPrefix(t *testing.T) {
	e := newEnv(t)
	e.signup("Alice")
	e.signup("alfred")
	e.signup("bob")

	w := e.json(http.MethodGet, "/getUsers?username=al", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	users := decode(t, w)["users"].([]interface{})
	require.Len(t, users, 2)
	assert.ElementsMatch(t, []string{"_id", "username"}, keys(users[0].(map[string]interface{})))

	w = e.json(http.MethodGet, "/getUsers?username=a.", nil, nil)
	assert.Empty(t, decode(t, w)["users"].([]interface{}))

	w = e.json(http.MethodGet, "/getUsers", nil, nil)
	assert.Len(t, decode(t, w)["users"].([]interface{}), 3)
}

func TestGetUser(t *testing.T) {
	e := newEnv(t)
	u := e.signup("alice")

	w := e.json(http.MethodGet, "/getUser/"+missingID, nil, u)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.json(http.MethodGet, "/getUser/nope", nil, u)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPushUnconfigured(t *testing.T) {
	e := newEnv(t)
	u := e.signup("alice")

	w := e.json(http.MethodGet, "/vapid-public-key", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = e.json(http.MethodPost, "/subscribe", map[string]interface{}{
		"endpoint": "https://push.test/1",
		"keys":     map[string]string{"p256dh": "k", "auth": "a"},
	}, u)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
