package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Todo is the demo resource guarded by bearer authentication.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	OwnerID     string     `json:"-"`
}

type todoStore struct {
	lock  sync.RWMutex
	todos map[string]*Todo
}

func newTodoStore() *todoStore {
	return &todoStore{todos: make(map[string]*Todo)}
}

func (ts *todoStore) listForOwner(ownerID string) []*Todo {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	out := make([]*Todo, 0)
	for _, t := range ts.todos {
		if t.OwnerID == ownerID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out
}

func (ts *todoStore) get(ownerID, id string) (*Todo, bool) {
	ts.lock.RLock()
	defer ts.lock.RUnlock()
	t, ok := ts.todos[id]
	if !ok || t.OwnerID != ownerID {
		return nil, false
	}
	copied := *t
	return &copied, true
}

func (ts *todoStore) put(t *Todo) {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	copied := *t
	ts.todos[t.ID] = &copied
}

func (ts *todoStore) delete(ownerID, id string) bool {
	ts.lock.Lock()
	defer ts.lock.Unlock()
	t, ok := ts.todos[id]
	if !ok || t.OwnerID != ownerID {
		return false
	}
	delete(ts.todos, id)
	return true
}

type todoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) ListTodosHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		writeJSON(w, http.StatusOK, s.todos.listForOwner(id.ID))
	}
}

func (s *Server) CreateTodoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())

		var req todoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}

		todo := &Todo{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			CreatedAt:   time.Now().UTC(),
			OwnerID:     id.ID,
		}
		s.todos.put(todo)
		writeJSON(w, http.StatusCreated, todo)
	}
}

func (s *Server) GetTodoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		todo, ok := s.todos.get(id.ID, r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "Todo not found")
			return
		}
		writeJSON(w, http.StatusOK, todo)
	}
}

func (s *Server) UpdateTodoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		todo, ok := s.todos.get(id.ID, r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "Todo not found")
			return
		}

		var req todoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}

		todo.Title = req.Title
		todo.Description = req.Description
		s.todos.put(todo)
		writeJSON(w, http.StatusOK, todo)
	}
}

func (s *Server) CompleteTodoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		todo, ok := s.todos.get(id.ID, r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "Todo not found")
			return
		}

		now := time.Now().UTC()
		todo.IsCompleted = true
		todo.CompletedAt = &now
		s.todos.put(todo)
		writeJSON(w, http.StatusOK, todo)
	}
}

func (s *Server) DeleteTodoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFromContext(r.Context())
		if !s.todos.delete(id.ID, r.PathValue("id")) {
			writeError(w, http.StatusNotFound, "Todo not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted"})
	}
}
