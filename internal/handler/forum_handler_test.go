package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type ForumAPITestSuite struct {
	suite.Suite
	server   *testServer
	authorID string
	author   *http.Cookie
	readerID string
	reader   *http.Cookie
}

func (s *ForumAPITestSuite) SetupTest() {
	s.server = newTestServer(s.T(), testConfig())
	s.Require().NoError(service.NewAchievementService(s.server.store.Achievements).SeedDefaults(context.Background()))

	s.authorID, s.author = s.server.register(s.T(), "author@example.com")
	s.readerID, s.reader = s.server.register(s.T(), "reader@example.com")
}

func (s *ForumAPITestSuite) createThread(title string) string {
	w := s.server.do(s.T(), http.MethodPost, "/api/threads", map[string]string{
		"title":    title,
		"content":  "How do I level a concrete floor?",
		"category": "construction",
	}, s.author)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode(s.T(), w)["id"].(string)
}

func (s *ForumAPITestSuite) createComment(threadID string) string {
	w := s.server.do(s.T(), http.MethodPost, "/api/threads/"+threadID+"/comments",
		map[string]string{"content": "Use a self-levelling compound."}, s.author)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode(s.T(), w)["id"].(string)
}

func (s *ForumAPITestSuite) vote(cookie *http.Cookie, targetType, targetID, voteType string) map[string]interface{} {
	w := s.server.do(s.T(), http.MethodPost, "/api/votes", map[string]string{
		"targetType": targetType,
		"targetId":   targetID,
		"voteType":   voteType,
	}, cookie)
	s.Require().Contains([]int{http.StatusOK, http.StatusCreated}, w.Code, w.Body.String())
	return decode(s.T(), w)
}

func (s *ForumAPITestSuite) TestThreadLifecycle() {
	id := s.createThread("Levelling a floor")

	w := s.server.do(s.T(), http.MethodGet, "/api/threads/"+id, nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := decode(s.T(), w)
	s.Equal(float64(0), body["upvotes"])
	s.Equal(s.authorID, body["authorId"])

	w = s.server.do(s.T(), http.MethodPatch, "/api/threads/"+id+"/upvotes", map[string]int{"upvotes": 5}, s.author)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.server.do(s.T(), http.MethodGet, "/api/threads/"+id, nil, nil)
	s.Equal(float64(5), decode(s.T(), w)["upvotes"])

	w = s.server.do(s.T(), http.MethodDelete, "/api/threads/"+id, nil, s.author)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.server.do(s.T(), http.MethodGet, "/api/threads/"+id, nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ForumAPITestSuite) TestListThreadsByCategory() {
	s.createThread("First")
	s.createThread("Second")

	w := s.server.do(s.T(), http.MethodPost, "/api/threads", map[string]string{
		"title": "Sofa", "content": "Reupholstering", "category": "furniture",
	}, s.author)
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.server.do(s.T(), http.MethodGet, "/api/threads?category=construction", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var threads []models.Thread
	s.Require().NoError(jsonUnmarshal(w.Body.Bytes(), &threads))
	s.Require().Len(threads, 2)
	s.Equal("Second", threads[0].Title)

	w = s.server.do(s.T(), http.MethodGet, "/api/threads?category=plumbing", nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ForumAPITestSuite) TestAnonymousMutationsRequireSession() {
	id := s.createThread("Locked")

	requests := []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodPost, "/api/threads", map[string]string{"title": "t", "content": "c", "category": "services"}},
		{http.MethodPatch, "/api/threads/" + id, map[string]string{"title": "x"}},
		{http.MethodPatch, "/api/threads/" + id + "/upvotes", map[string]int{"upvotes": 1}},
		{http.MethodDelete, "/api/threads/" + id, nil},
		{http.MethodPost, "/api/threads/" + id + "/comments", map[string]string{"content": "hi"}},
		{http.MethodPost, "/api/votes", map[string]string{"targetType": "thread", "targetId": id, "voteType": "up"}},
		{http.MethodPost, "/api/bookmarks", map[string]string{"targetType": "thread", "targetId": id}},
		{http.MethodGet, "/api/bookmarks", nil},
		{http.MethodGet, "/api/profile", nil},
	}

	for _, r := range requests {
		w := s.server.do(s.T(), r.method, r.path, r.body, nil)
		s.Equal(http.StatusUnauthorized, w.Code, "%s %s", r.method, r.path)
	}
}

func (s *ForumAPITestSuite) TestDevelopmentFallbackAuthor() {
	cfg := testConfig()
	cfg.Environment = "development"
	fallback := uuid.New()
	cfg.DevFallbackUserID = fallback.String()
	server := newTestServer(s.T(), cfg)

	_, err := service.NewAuthService(server.store.Users).EnsureUser(context.Background(), fallback)
	s.Require().NoError(err)

	w := server.do(s.T(), http.MethodPost, "/api/threads", map[string]string{
		"title": "Anonymous", "content": "Posted without a session", "category": "services",
	}, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal(fallback.String(), decode(s.T(), w)["authorId"])

	// The fallback never authorizes edits.
	id := decode(s.T(), w)["id"].(string)
	w = server.do(s.T(), http.MethodPatch, "/api/threads/"+id, map[string]string{"title": "x"}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *ForumAPITestSuite) TestUpdateThread() {
	id := s.createThread("Original")

	w := s.server.do(s.T(), http.MethodPatch, "/api/threads/"+id, map[string]string{"title": "Edited"}, s.author)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := decode(s.T(), w)
	s.Equal("Edited", body["title"])
	s.Equal("construction", body["category"])

	w = s.server.do(s.T(), http.MethodPatch, "/api/threads/"+id, map[string]string{"title": "Hijack"}, s.reader)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.server.do(s.T(), http.MethodPatch, "/api/threads/"+id, map[string]string{}, s.author)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.server.do(s.T(), http.MethodPatch, "/api/threads/"+id, map[string]string{"title": "  "}, s.author)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.server.do(s.T(), http.MethodPatch, "/api/threads/"+id, map[string]string{"upvotes": "9"}, s.author)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.server.do(s.T(), http.MethodPatch, "/api/threads/"+uuid.NewString(), map[string]string{"title": "x"}, s.author)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ForumAPITestSuite) TestNonAuthorCannotDelete() {
	id := s.createThread("Mine")

	w := s.server.do(s.T(), http.MethodDelete, "/api/threads/"+id, nil, s.reader)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.server.do(s.T(), http.MethodGet, "/api/threads/"+id, nil, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *ForumAPITestSuite) TestMalformedIDIsRejected() {
	w := s.server.do(s.T(), http.MethodGet, "/api/threads/not-a-uuid", nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ForumAPITestSuite) TestUpvoteOverwriteDisabled() {
	cfg := testConfig()
	cfg.AllowUpvoteOverwrite = false
	server := newTestServer(s.T(), cfg)
	_, cookie := server.register(s.T(), "strict@example.com")

	w := server.do(s.T(), http.MethodPost, "/api/threads", map[string]string{
		"title": "t", "content": "c", "category": "services",
	}, cookie)
	s.Require().Equal(http.StatusCreated, w.Code)
	id := decode(s.T(), w)["id"].(string)

	w = server.do(s.T(), http.MethodPatch, "/api/threads/"+id+"/upvotes", map[string]int{"upvotes": 5}, cookie)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ForumAPITestSuite) TestSetUpvotesRejectsNegative() {
	id := s.createThread("Counter")

	w := s.server.do(s.T(), http.MethodPatch, "/api/threads/"+id+"/upvotes", map[string]int{"upvotes": -1}, s.author)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.server.do(s.T(), http.MethodPatch, "/api/threads/"+id+"/upvotes", map[string]string{}, s.author)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ForumAPITestSuite) TestCommentLifecycle() {
	threadID := s.createThread("Discussion")
	first := s.createComment(threadID)
	s.createComment(threadID)

	w := s.server.do(s.T(), http.MethodGet, "/api/threads/"+threadID+"/comments", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var comments []models.Comment
	s.Require().NoError(jsonUnmarshal(w.Body.Bytes(), &comments))
	s.Require().Len(comments, 2)
	s.Equal(first, comments[0].ID.String())

	w = s.server.do(s.T(), http.MethodPatch, "/api/comments/"+first, map[string]string{"content": "Edited"}, s.author)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("Edited", decode(s.T(), w)["content"])

	w = s.server.do(s.T(), http.MethodPatch, "/api/comments/"+first, map[string]string{"content": "Nope"}, s.reader)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.server.do(s.T(), http.MethodDelete, "/api/comments/"+first, nil, s.author)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.server.do(s.T(), http.MethodGet, "/api/comments/"+first, nil, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.server.do(s.T(), http.MethodGet, "/api/threads/"+uuid.NewString()+"/comments", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.server.do(s.T(), http.MethodPost, "/api/threads/"+uuid.NewString()+"/comments",
		map[string]string{"content": "orphan"}, s.author)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ForumAPITestSuite) TestVoteToggle() {
	id := s.createThread("Vote on me")

	body := s.vote(s.reader, "thread", id, "up")
	s.Equal("up", body["voteType"])
	s.Equal(float64(1), body["counts"].(map[string]interface{})["upvotes"])

	body = s.vote(s.reader, "thread", id, "down")
	s.Equal("down", body["voteType"])
	counts := body["counts"].(map[string]interface{})
	s.Equal(float64(0), counts["upvotes"])
	s.Equal(float64(1), counts["downvotes"])

	body = s.vote(s.reader, "thread", id, "down")
	s.Equal("Vote removed", body["message"])
	s.Equal(float64(0), body["counts"].(map[string]interface{})["downvotes"])

	w := s.server.do(s.T(), http.MethodGet, "/api/threads/"+id, nil, nil)
	s.Equal(float64(0), decode(s.T(), w)["upvotes"])
}

func (s *ForumAPITestSuite) TestVoteCounts() {
	id := s.createThread("Counted")
	s.vote(s.reader, "thread", id, "up")

	path := fmt.Sprintf("/api/votes/thread/%s", id)
	w := s.server.do(s.T(), http.MethodGet, path, nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	body := decode(s.T(), w)
	s.Equal(float64(1), body["upvotes"])
	s.NotContains(body, "userVote")

	w = s.server.do(s.T(), http.MethodGet, path, nil, s.reader)
	s.Equal("up", decode(s.T(), w)["userVote"])

	w = s.server.do(s.T(), http.MethodGet, path, nil, s.author)
	body = decode(s.T(), w)
	s.Contains(body, "userVote")
	s.Nil(body["userVote"])

	w = s.server.do(s.T(), http.MethodGet, "/api/votes/post/"+id, nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ForumAPITestSuite) TestVoteOnUnknownTarget() {
	w := s.server.do(s.T(), http.MethodPost, "/api/votes", map[string]string{
		"targetType": "comment", "targetId": uuid.NewString(), "voteType": "up",
	}, s.reader)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.server.do(s.T(), http.MethodPost, "/api/votes", map[string]string{
		"targetType": "thread", "targetId": uuid.NewString(), "voteType": "sideways",
	}, s.reader)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ForumAPITestSuite) TestKarmaAndProfile() {
	id := s.createThread("Karma")

	s.vote(s.reader, "thread", id, "up")
	s.vote(s.reader, "thread", id, "up")
	s.vote(s.reader, "thread", id, "up")
	// Voting on your own thread pays nothing.
	s.vote(s.author, "thread", id, "up")

	w := s.server.do(s.T(), http.MethodGet, "/api/profile", nil, s.author)
	s.Require().Equal(http.StatusOK, w.Code)
	profile := decode(s.T(), w)
	s.Equal(float64(1), profile["karma"])
	s.Equal(float64(1), profile["threadsCount"])
	s.Nil(profile["currentAchievement"])
	s.Equal("Getting the Hang of It", profile["nextAchievement"].(map[string]interface{})["name"])
	s.Equal(float64(9), profile["karmaToNext"])
}

func (s *ForumAPITestSuite) TestUpdateProfile() {
	w := s.server.do(s.T(), http.MethodPatch, "/api/profile", map[string]interface{}{
		"bio":             "Carpenter for 20 years",
		"role":            "contractor",
		"isProfilePublic": false,
	}, s.author)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := decode(s.T(), w)
	s.Equal("contractor", body["role"])
	s.Equal(false, body["isProfilePublic"])

	w = s.server.do(s.T(), http.MethodPatch, "/api/profile", map[string]string{"role": "wizard"}, s.author)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.server.do(s.T(), http.MethodPatch, "/api/profile", map[string]string{"karma": "100"}, s.author)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ForumAPITestSuite) TestCurrentUserReflectsProfileEdits() {
	w := s.server.do(s.T(), http.MethodPatch, "/api/profile", map[string]string{
		"firstName":       "Grace",
		"lastName":        "Hopper",
		"profileImageUrl": "https://cdn.example.com/grace.png",
	}, s.author)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.server.do(s.T(), http.MethodGet, "/api/auth/user", nil, s.author)
	s.Require().Equal(http.StatusOK, w.Code)
	body := decode(s.T(), w)
	s.Equal("Grace", body["firstName"])
	s.Equal("Hopper", body["lastName"])
	s.Equal("https://cdn.example.com/grace.png", body["profileImageUrl"])
}

func (s *ForumAPITestSuite) TestBookmarkToggle() {
	id := s.createThread("Save me")
	req := map[string]string{"targetType": "thread", "targetId": id}

	w := s.server.do(s.T(), http.MethodPost, "/api/bookmarks", req, s.reader)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal(id, decode(s.T(), w)["targetId"])

	w = s.server.do(s.T(), http.MethodGet, "/api/bookmarks", nil, s.reader)
	var bookmarks []models.Bookmark
	s.Require().NoError(jsonUnmarshal(w.Body.Bytes(), &bookmarks))
	s.Len(bookmarks, 1)

	w = s.server.do(s.T(), http.MethodPost, "/api/bookmarks", req, s.reader)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("Bookmark removed", decode(s.T(), w)["message"])

	w = s.server.do(s.T(), http.MethodGet, "/api/bookmarks", nil, s.reader)
	s.Equal("[]", w.Body.String())

	w = s.server.do(s.T(), http.MethodPost, "/api/bookmarks",
		map[string]string{"targetType": "thread", "targetId": uuid.NewString()}, s.reader)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ForumAPITestSuite) TestAchievementsArePublic() {
	w := s.server.do(s.T(), http.MethodGet, "/api/achievements", nil, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var ladder []models.Achievement
	s.Require().NoError(jsonUnmarshal(w.Body.Bytes(), &ladder))
	s.Require().Len(ladder, len(models.DefaultAchievements()))
	s.Equal(10, ladder[0].Requirement)
}

func TestForumAPITestSuite(t *testing.T) {
	suite.Run(t, new(ForumAPITestSuite))
}
