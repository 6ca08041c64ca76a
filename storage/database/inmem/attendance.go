package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/user"
)

type attendanceRepository struct {
	db *DB
}

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) NextSessionID(width int) (string, error) {
	return repo.db.nextID(attendance.SessionIDPrefix, width), nil
}

func (repo *attendanceRepository) CreateSession(sess attendance.Session) (attendance.Session, error) {
	repo.db.session.Lock()
	defer repo.db.session.Unlock()

	repo.db.session.table[sess.ID] = &sess
	return sess, nil
}

func (repo *attendanceRepository) GetSessionByID(id string) (attendance.Session, error) {
	repo.db.session.RLock()
	defer repo.db.session.RUnlock()

	if sess, ok := repo.db.session.table[id]; ok {
		return *sess, nil
	}
	return attendance.Session{}, attendance.ErrSessionNotFound
}

func (repo *attendanceRepository) QuerySessionsByLecturer(lecturerID string) ([]attendance.Session, error) {
	repo.db.session.RLock()
	defer repo.db.session.RUnlock()

	sessions := make([]attendance.Session, 0)
	for _, sess := range repo.db.session.table {
		if sess.LecturerID == lecturerID {
			sessions = append(sessions, *sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.After(sessions[j].CreatedAt) })
	return sessions, nil
}

func (repo *attendanceRepository) CloseSession(id string) (attendance.Session, error) {
	repo.db.session.Lock()
	defer repo.db.session.Unlock()

	sess, ok := repo.db.session.table[id]
	if !ok {
		return attendance.Session{}, attendance.ErrSessionNotFound
	}
	if sess.Status != attendance.SessionOpen {
		return attendance.Session{}, attendance.ErrSessionClosed
	}
	sess.Status = attendance.SessionClosed
	return *sess, nil
}

func (repo *attendanceRepository) CreateRecord(rec attendance.Record) (attendance.Record, error) {
	repo.db.record.Lock()
	defer repo.db.record.Unlock()

	for _, r := range repo.db.record.table {
		if r.SessionID == rec.SessionID && r.StudentID == rec.StudentID {
			return attendance.Record{}, attendance.ErrAlreadyRecorded
		}
	}
	rec.ID = uuid.New().String()
	repo.db.record.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetRecord(sessionID, studentID string) (attendance.Record, error) {
	repo.db.record.RLock()
	defer repo.db.record.RUnlock()

	for _, rec := range repo.db.record.table {
		if rec.SessionID == sessionID && rec.StudentID == studentID {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) UpdateRecord(rec attendance.Record) (attendance.Record, error) {
	repo.db.record.Lock()
	defer repo.db.record.Unlock()

	if _, ok := repo.db.record.table[rec.ID]; !ok {
		return attendance.Record{}, attendance.ErrRecordNotFound
	}
	repo.db.record.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) DeleteRecord(sessionID, studentID string) error {
	repo.db.record.Lock()
	defer repo.db.record.Unlock()

	for id, rec := range repo.db.record.table {
		if rec.SessionID == sessionID && rec.StudentID == studentID {
			delete(repo.db.record.table, id)
			return nil
		}
	}
	return attendance.ErrRecordNotFound
}

func (repo *attendanceRepository) QueryHistory(studentID string, filter attendance.HistoryFilter) ([]attendance.HistoryItem, error) {
	recs := repo.studentRecords(studentID)

	repo.db.session.RLock()
	defer repo.db.session.RUnlock()

	items := make([]attendance.HistoryItem, 0, len(recs))
	for _, rec := range recs {
		sess, ok := repo.db.session.table[rec.SessionID]
		if !ok {
			continue
		}
		if filter.ClassName != "" && sess.ClassName != filter.ClassName {
			continue
		}
		if !inDateRange(sess.Date, filter.DateFrom, filter.DateTo) {
			continue
		}
		items = append(items, attendance.HistoryItem{
			SessionID: sess.ID,
			ClassName: sess.ClassName,
			Date:      sess.Date,
			StartTime: sess.StartTime.String,
			Status:    rec.Status,
			Note:      rec.Note.String,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date > items[j].Date
		}
		return items[i].SessionID > items[j].SessionID
	})
	return items, nil
}

func (repo *attendanceRepository) QueryRoster(sessionID string) ([]attendance.RosterEntry, error) {
	repo.db.user.RLock()
	students := make([]user.User, 0)
	for _, usr := range repo.db.user.table {
		if usr.IsStudent() {
			students = append(students, *usr)
		}
	}
	repo.db.user.RUnlock()
	sort.Slice(students, func(i, j int) bool { return students[i].RoleID < students[j].RoleID })

	repo.db.record.RLock()
	defer repo.db.record.RUnlock()

	entries := make([]attendance.RosterEntry, 0, len(students))
	for _, stu := range students {
		entry := attendance.RosterEntry{
			StudentID:     stu.ID,
			StudentRoleID: stu.RoleID,
			StudentName:   stu.Name,
			Status:        attendance.StatusAbsent,
		}
		for _, rec := range repo.db.record.table {
			if rec.SessionID == sessionID && rec.StudentID == stu.ID {
				entry.Status = rec.Status
				break
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (repo *attendanceRepository) QueryClassSummary(className, dateFrom, dateTo string) ([]attendance.ClassSummary, error) {
	sessions := repo.classSessions(className, dateFrom, dateTo)

	repo.db.record.RLock()
	counts := make(map[string]*attendance.ClassSummary)
	for _, rec := range repo.db.record.table {
		if _, ok := sessions[rec.SessionID]; !ok {
			continue
		}
		sum, ok := counts[rec.StudentID]
		if !ok {
			sum = &attendance.ClassSummary{}
			counts[rec.StudentID] = sum
		}
		switch rec.Status {
		case attendance.StatusPresent:
			sum.Present++
		case attendance.StatusLate:
			sum.Late++
		case attendance.StatusAbsent:
			sum.Absent++
		case attendance.StatusExcused:
			sum.Excused++
		}
		sum.Total++
	}
	repo.db.record.RUnlock()

	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	rows := make([]attendance.ClassSummary, 0, len(counts))
	for studentID, sum := range counts {
		if usr, ok := repo.db.user.table[studentID]; ok {
			sum.StudentRoleID = usr.RoleID
			sum.StudentName = usr.Name
		}
		rows = append(rows, *sum)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentRoleID < rows[j].StudentRoleID })
	return rows, nil
}

func (repo *attendanceRepository) SearchRecords(filter attendance.SearchFilter) ([]attendance.SearchResult, error) {
	repo.db.record.RLock()
	recs := make([]attendance.Record, 0, len(repo.db.record.table))
	for _, rec := range repo.db.record.table {
		recs = append(recs, *rec)
	}
	repo.db.record.RUnlock()

	repo.db.session.RLock()
	defer repo.db.session.RUnlock()
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	results := make([]attendance.SearchResult, 0)
	for _, rec := range recs {
		sess, ok := repo.db.session.table[rec.SessionID]
		if !ok {
			continue
		}

		switch filter.By {
		case attendance.SearchByStudentID:
			if rec.StudentID != filter.Keyword {
				continue
			}
		case attendance.SearchBySessionID:
			if rec.SessionID != filter.Keyword {
				continue
			}
		case attendance.SearchByClassName:
			if sess.ClassName != filter.Keyword {
				continue
			}
		case attendance.SearchByDateRange:
			if !inDateRange(sess.Date, filter.DateFrom, filter.DateTo) {
				continue
			}
		default:
			continue
		}

		res := attendance.SearchResult{
			RecordID:  rec.ID,
			SessionID: sess.ID,
			ClassName: sess.ClassName,
			Date:      sess.Date,
			Status:    rec.Status,
			Note:      rec.Note.String,
		}
		if rec.CheckTime.Valid {
			res.CheckTime = rec.CheckTime.Time.Format(core.TimestampFormat)
		}
		if usr, ok := repo.db.user.table[rec.StudentID]; ok {
			res.StudentRoleID = usr.RoleID
			res.StudentName = usr.Name
		}
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Date != results[j].Date {
			return results[i].Date > results[j].Date
		}
		if results[i].SessionID != results[j].SessionID {
			return results[i].SessionID < results[j].SessionID
		}
		return results[i].StudentRoleID < results[j].StudentRoleID
	})
	return results, nil
}

// CountClassAbsences tallies Absent records per student across a class.
func (repo *attendanceRepository) CountClassAbsences(className string) (map[string]int, error) {
	sessions := repo.classSessions(className, "", "")

	repo.db.record.RLock()
	defer repo.db.record.RUnlock()

	counts := make(map[string]int)
	for _, rec := range repo.db.record.table {
		if _, ok := sessions[rec.SessionID]; !ok {
			continue
		}
		if rec.Status == attendance.StatusAbsent {
			counts[rec.StudentID]++
		}
	}
	return counts, nil
}

func (repo *attendanceRepository) studentRecords(studentID string) []attendance.Record {
	repo.db.record.RLock()
	defer repo.db.record.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.db.record.table {
		if rec.StudentID == studentID {
			recs = append(recs, *rec)
		}
	}
	return recs
}

func (repo *attendanceRepository) classSessions(className, dateFrom, dateTo string) map[string]bool {
	repo.db.session.RLock()
	defer repo.db.session.RUnlock()

	sessions := make(map[string]bool)
	for _, sess := range repo.db.session.table {
		if sess.ClassName != className {
			continue
		}
		if !inDateRange(sess.Date, dateFrom, dateTo) {
			continue
		}
		sessions[sess.ID] = true
	}
	return sessions
}

// inDateRange does a lexical compare; dates are YYYY-MM-DD so it orders
// correctly. Empty bounds are open.
func inDateRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}
