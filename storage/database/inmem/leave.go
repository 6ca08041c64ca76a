package inmemdb

import (
	"sort"

	"github.com/trezcool/mahudhurio/core/leave"
)

type leaveRepository struct {
	db *DB
}

func NewLeaveRepository(db *DB) leave.Repository {
	return &leaveRepository{db: db}
}

func (repo *leaveRepository) query(match func(leave.Request) bool) []leave.Request {
	reqs := make([]leave.Request, 0)
	for _, req := range repo.db.leave.table {
		if match(*req) {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.After(reqs[j].CreatedAt) })
	return reqs
}

func (repo *leaveRepository) NextRequestID(width int) (string, error) {
	return repo.db.nextID(leave.RequestIDPrefix, width), nil
}

func (repo *leaveRepository) CreateRequest(req leave.Request) (leave.Request, error) {
	repo.db.leave.Lock()
	defer repo.db.leave.Unlock()

	repo.db.leave.table[req.ID] = &req
	return req, nil
}

func (repo *leaveRepository) GetRequestByID(id string) (leave.Request, error) {
	repo.db.leave.RLock()
	defer repo.db.leave.RUnlock()

	if req, ok := repo.db.leave.table[id]; ok {
		return *req, nil
	}
	return leave.Request{}, leave.ErrNotFound
}

func (repo *leaveRepository) QueryRequestsByStudent(studentID string) ([]leave.Request, error) {
	repo.db.leave.RLock()
	defer repo.db.leave.RUnlock()
	return repo.query(func(req leave.Request) bool { return req.StudentID == studentID }), nil
}

func (repo *leaveRepository) QueryRequestsByLecturer(lecturerID string, pendingOnly bool) ([]leave.Request, error) {
	repo.db.leave.RLock()
	defer repo.db.leave.RUnlock()
	return repo.query(func(req leave.Request) bool {
		if req.LecturerID != lecturerID {
			return false
		}
		return !pendingOnly || req.Status == leave.StatusPending
	}), nil
}

func (repo *leaveRepository) CountPendingByStudent(studentID string) (int, error) {
	repo.db.leave.RLock()
	defer repo.db.leave.RUnlock()
	return len(repo.query(func(req leave.Request) bool {
		return req.StudentID == studentID && req.Status == leave.StatusPending
	})), nil
}

func (repo *leaveRepository) CountPendingByLecturer(lecturerID string) (int, error) {
	repo.db.leave.RLock()
	defer repo.db.leave.RUnlock()
	return len(repo.query(func(req leave.Request) bool {
		return req.LecturerID == lecturerID && req.Status == leave.StatusPending
	})), nil
}

func (repo *leaveRepository) UpdateRequest(req leave.Request) (leave.Request, error) {
	repo.db.leave.Lock()
	defer repo.db.leave.Unlock()

	if _, ok := repo.db.leave.table[req.ID]; !ok {
		return leave.Request{}, leave.ErrNotFound
	}
	repo.db.leave.table[req.ID] = &req
	return req, nil
}
