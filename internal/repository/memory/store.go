// Package memory keeps the forum's state in process memory. It mirrors the
// gorm repositories so the server can run without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/google/uuid"
)

type targetKey struct {
	targetType models.TargetType
	targetID   uuid.UUID
}

type ledgerKey struct {
	userID uuid.UUID
	target targetKey
}

type awardKey struct {
	userID        uuid.UUID
	achievementID uuid.UUID
}

type state struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*models.User
	threads      map[uuid.UUID]*models.Thread
	comments     map[uuid.UUID]*models.Comment
	votes        map[ledgerKey]*models.Vote
	bookmarks    map[ledgerKey]*models.Bookmark
	grants       map[ledgerKey]uuid.UUID
	achievements map[uuid.UUID]*models.Achievement
	awards       map[awardKey]*models.UserAchievement

	// seq breaks ties between rows created within the same clock tick.
	seq     uint64
	created map[uuid.UUID]uint64
}

// NewStore returns an empty store implementing every repository.
func NewStore() *repository.Store {
	s := &state{
		users:        make(map[uuid.UUID]*models.User),
		threads:      make(map[uuid.UUID]*models.Thread),
		comments:     make(map[uuid.UUID]*models.Comment),
		votes:        make(map[ledgerKey]*models.Vote),
		bookmarks:    make(map[ledgerKey]*models.Bookmark),
		grants:       make(map[ledgerKey]uuid.UUID),
		achievements: make(map[uuid.UUID]*models.Achievement),
		awards:       make(map[awardKey]*models.UserAchievement),
		created:      make(map[uuid.UUID]uint64),
	}
	return &repository.Store{
		Users:        &userRepository{s},
		Threads:      &threadRepository{s},
		Comments:     &commentRepository{s},
		Votes:        &voteRepository{s},
		Bookmarks:    &bookmarkRepository{s},
		Achievements: &achievementRepository{s},
	}
}

func (s *state) stamp(id uuid.UUID) time.Time {
	s.seq++
	s.created[id] = s.seq
	return time.Now().UTC()
}

// newer orders rows by creation, newest first.
func (s *state) newer(a, b uuid.UUID) bool {
	return s.created[a] > s.created[b]
}

// ---- users ----

type userRepository struct{ s *state }

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleDIY
	}
	// Same as the column default: a new profile starts public.
	user.IsProfilePublic = true
	if _, ok := r.s.users[user.ID]; ok {
		return repository.ErrDuplicate
	}
	for _, u := range r.s.users {
		if sameOptional(u.Email, user.Email) || sameOptional(u.ExternalSubject, user.ExternalSubject) {
			return repository.ErrDuplicate
		}
	}

	now := r.s.stamp(user.ID)
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func sameOptional(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.users[id]; ok {
		user := *u
		return &user, nil
	}
	return nil, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email != nil && *u.Email == email })
}

func (r *userRepository) GetByExternalSubject(ctx context.Context, subject string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ExternalSubject != nil && *u.ExternalSubject == subject })
}

func (r *userRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			user := *u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.s.users {
		if id == user.ID {
			continue
		}
		if sameOptional(u.Email, user.Email) || sameOptional(u.ExternalSubject, user.ExternalSubject) {
			return repository.ErrDuplicate
		}
	}

	next := *user
	next.Karma = stored.Karma
	next.CreatedAt = stored.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	*stored = next
	user.UpdatedAt = next.UpdatedAt
	user.Karma = next.Karma
	return nil
}

func (r *userRepository) Stats(ctx context.Context, id uuid.UUID) (models.UserStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var stats models.UserStats
	for _, t := range r.s.threads {
		if t.AuthorID == id {
			stats.ThreadsCount++
			stats.TotalUpvotes += int64(t.Upvotes)
		}
	}
	for _, c := range r.s.comments {
		if c.AuthorID == id {
			stats.CommentsCount++
			stats.TotalUpvotes += int64(c.Upvotes)
		}
	}
	return stats, nil
}

// ---- threads ----

type threadRepository struct{ s *state }

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if thread.ID == uuid.Nil {
		thread.ID = uuid.New()
	}
	if _, ok := r.s.threads[thread.ID]; ok {
		return repository.ErrDuplicate
	}
	now := r.s.stamp(thread.ID)
	thread.CreatedAt, thread.UpdatedAt = now, now

	stored := *thread
	stored.Author = models.User{}
	r.s.threads[thread.ID] = &stored
	return nil
}

func (r *threadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if t, ok := r.s.threads[id]; ok {
		thread := *t
		return &thread, nil
	}
	return nil, nil
}

func (r *threadRepository) List(ctx context.Context, filter models.ThreadFilter) ([]models.Thread, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	threads := make([]models.Thread, 0, len(r.s.threads))
	for _, t := range r.s.threads {
		if filter.Matches(t) {
			threads = append(threads, *t)
		}
	}
	sort.Slice(threads, func(i, j int) bool {
		return r.s.newer(threads[i].ID, threads[j].ID)
	})
	return threads, nil
}

func (r *threadRepository) Update(ctx context.Context, id uuid.UUID, update models.ThreadUpdate) (*models.Thread, error) {
	return r.mutate(id, update.Apply)
}

func (r *threadRepository) SetUpvotes(ctx context.Context, id uuid.UUID, upvotes int) (*models.Thread, error) {
	return r.mutate(id, func(t *models.Thread) { t.Upvotes = upvotes })
}

func (r *threadRepository) mutate(id uuid.UUID, apply func(*models.Thread)) (*models.Thread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.threads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	apply(stored)
	stored.UpdatedAt = time.Now().UTC()
	thread := *stored
	return &thread, nil
}

func (r *threadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.threads[id]; !ok {
		return repository.ErrNotFound
	}
	for cid, c := range r.s.comments {
		if c.ThreadID == id {
			r.s.dropTarget(targetKey{models.TargetComment, cid})
			delete(r.s.comments, cid)
			delete(r.s.created, cid)
		}
	}
	r.s.dropTarget(targetKey{models.TargetThread, id})
	delete(r.s.threads, id)
	delete(r.s.created, id)
	return nil
}

// dropTarget removes votes and bookmarks on a deleted target. Karma grants
// are kept. Callers hold the write lock.
func (s *state) dropTarget(target targetKey) {
	for k := range s.votes {
		if k.target == target {
			delete(s.votes, k)
		}
	}
	for k := range s.bookmarks {
		if k.target == target {
			delete(s.bookmarks, k)
		}
	}
}

// ---- comments ----

type commentRepository struct{ s *state }

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.threads[comment.ThreadID]; !ok {
		return repository.ErrNotFound
	}
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if _, ok := r.s.comments[comment.ID]; ok {
		return repository.ErrDuplicate
	}
	now := r.s.stamp(comment.ID)
	comment.CreatedAt, comment.UpdatedAt = now, now

	stored := *comment
	stored.Thread = models.Thread{}
	stored.Author = models.User{}
	r.s.comments[comment.ID] = &stored
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if c, ok := r.s.comments[id]; ok {
		comment := *c
		return &comment, nil
	}
	return nil, nil
}

func (r *commentRepository) ListByThread(ctx context.Context, threadID uuid.UUID) ([]models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comments := make([]models.Comment, 0)
	for _, c := range r.s.comments {
		if c.ThreadID == threadID {
			comments = append(comments, *c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return r.s.newer(comments[j].ID, comments[i].ID)
	})
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, id uuid.UUID, content string) (*models.Comment, error) {
	return r.mutate(id, func(c *models.Comment) { c.Content = content })
}

func (r *commentRepository) SetUpvotes(ctx context.Context, id uuid.UUID, upvotes int) (*models.Comment, error) {
	return r.mutate(id, func(c *models.Comment) { c.Upvotes = upvotes })
}

func (r *commentRepository) mutate(id uuid.UUID, apply func(*models.Comment)) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	apply(stored)
	stored.UpdatedAt = time.Now().UTC()
	comment := *stored
	return &comment, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	r.s.dropTarget(targetKey{models.TargetComment, id})
	delete(r.s.comments, id)
	delete(r.s.created, id)
	return nil
}

// ---- votes ----

type voteRepository struct{ s *state }

func (r *voteRepository) Get(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (*models.Vote, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if v, ok := r.s.votes[ledgerKey{userID, targetKey{targetType, targetID}}]; ok {
		vote := *v
		return &vote, nil
	}
	return nil, nil
}

func (r *voteRepository) Cast(ctx context.Context, cast models.VoteCast) (*models.VoteResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	target := targetKey{cast.TargetType, cast.TargetID}
	if !r.s.targetExists(target) {
		return nil, repository.ErrNotFound
	}

	key := ledgerKey{cast.UserID, target}
	existing := r.s.votes[key]
	var current *models.VoteType
	if existing != nil {
		current = &existing.VoteType
	}

	result := &models.VoteResult{Action: models.NextVoteAction(current, cast.VoteType)}
	switch result.Action {
	case models.VoteActionInsert:
		vote := &models.Vote{
			ID:         uuid.New(),
			UserID:     cast.UserID,
			TargetType: cast.TargetType,
			TargetID:   cast.TargetID,
			VoteType:   cast.VoteType,
			CreatedAt:  time.Now().UTC(),
		}
		r.s.votes[key] = vote
		copied := *vote
		result.Vote = &copied
	case models.VoteActionRemove:
		delete(r.s.votes, key)
	case models.VoteActionReplace:
		existing.VoteType = cast.VoteType
		copied := *existing
		result.Vote = &copied
	}

	result.Counts = r.s.counts(target)
	r.s.writeUpvotes(target, int(result.Counts.Upvotes))

	if result.Vote != nil && result.Vote.VoteType == models.VoteUp {
		r.s.grantKarma(key, cast, result)
	}
	return result, nil
}

func (s *state) targetExists(target targetKey) bool {
	switch target.targetType {
	case models.TargetThread:
		_, ok := s.threads[target.targetID]
		return ok
	case models.TargetComment:
		_, ok := s.comments[target.targetID]
		return ok
	}
	return false
}

func (s *state) counts(target targetKey) models.VoteCounts {
	var counts models.VoteCounts
	for k, v := range s.votes {
		if k.target != target {
			continue
		}
		switch v.VoteType {
		case models.VoteUp:
			counts.Upvotes++
		case models.VoteDown:
			counts.Downvotes++
		}
	}
	return counts
}

func (s *state) writeUpvotes(target targetKey, upvotes int) {
	switch target.targetType {
	case models.TargetThread:
		s.threads[target.targetID].Upvotes = upvotes
	case models.TargetComment:
		s.comments[target.targetID].Upvotes = upvotes
	}
}

func (s *state) grantKarma(key ledgerKey, cast models.VoteCast, result *models.VoteResult) {
	if cast.TargetAuthorID == uuid.Nil || cast.TargetAuthorID == cast.UserID {
		return
	}
	if _, paid := s.grants[key]; paid {
		return
	}
	s.grants[key] = cast.TargetAuthorID

	author, ok := s.users[cast.TargetAuthorID]
	if !ok {
		return
	}
	author.Karma++
	recipient := author.ID
	result.KarmaRecipient = &recipient
	result.RecipientKarma = author.Karma
}

func (r *voteRepository) Counts(ctx context.Context, targetType models.TargetType, targetID uuid.UUID) (models.VoteCounts, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.counts(targetKey{targetType, targetID}), nil
}

// ---- bookmarks ----

type bookmarkRepository struct{ s *state }

func (r *bookmarkRepository) Toggle(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (*models.Bookmark, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := ledgerKey{userID, targetKey{targetType, targetID}}
	if existing, ok := r.s.bookmarks[key]; ok {
		delete(r.s.bookmarks, key)
		delete(r.s.created, existing.ID)
		return nil, false, nil
	}

	if !r.s.targetExists(key.target) {
		return nil, false, repository.ErrNotFound
	}

	bookmark := &models.Bookmark{
		ID:         uuid.New(),
		UserID:     userID,
		TargetType: targetType,
		TargetID:   targetID,
	}
	bookmark.CreatedAt = r.s.stamp(bookmark.ID)
	r.s.bookmarks[key] = bookmark

	copied := *bookmark
	return &copied, true, nil
}

func (r *bookmarkRepository) Exists(ctx context.Context, userID uuid.UUID, targetType models.TargetType, targetID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.bookmarks[ledgerKey{userID, targetKey{targetType, targetID}}]
	return ok, nil
}

func (r *bookmarkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Bookmark, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bookmarks := make([]models.Bookmark, 0)
	for k, b := range r.s.bookmarks {
		if k.userID == userID {
			bookmarks = append(bookmarks, *b)
		}
	}
	sort.Slice(bookmarks, func(i, j int) bool {
		return r.s.newer(bookmarks[i].ID, bookmarks[j].ID)
	})
	return bookmarks, nil
}

// ---- achievements ----

type achievementRepository struct{ s *state }

func (r *achievementRepository) Seed(ctx context.Context, achievements []models.Achievement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	known := make(map[string]bool, len(r.s.achievements))
	for _, a := range r.s.achievements {
		known[a.Name] = true
	}
	for _, a := range achievements {
		if known[a.Name] {
			continue
		}
		stored := a
		if stored.ID == uuid.Nil {
			stored.ID = uuid.New()
		}
		if stored.Category == "" {
			stored.Category = "karma"
		}
		stored.CreatedAt = time.Now().UTC()
		r.s.achievements[stored.ID] = &stored
		known[a.Name] = true
	}
	return nil
}

func (r *achievementRepository) List(ctx context.Context) ([]models.Achievement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	achievements := make([]models.Achievement, 0, len(r.s.achievements))
	for _, a := range r.s.achievements {
		achievements = append(achievements, *a)
	}
	sort.Slice(achievements, func(i, j int) bool {
		return achievements[i].Requirement < achievements[j].Requirement
	})
	return achievements, nil
}

func (r *achievementRepository) ListEarned(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	earned := make([]models.UserAchievement, 0)
	for k, ua := range r.s.awards {
		if k.userID == userID {
			earned = append(earned, *ua)
		}
	}
	sort.Slice(earned, func(i, j int) bool {
		return earned[i].EarnedAt.Before(earned[j].EarnedAt)
	})
	return earned, nil
}

func (r *achievementRepository) Award(ctx context.Context, userID, achievementID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := awardKey{userID, achievementID}
	if _, ok := r.s.awards[key]; ok {
		return false, nil
	}
	r.s.awards[key] = &models.UserAchievement{
		ID:            uuid.New(),
		UserID:        userID,
		AchievementID: achievementID,
		EarnedAt:      time.Now().UTC(),
	}
	return true, nil
}
