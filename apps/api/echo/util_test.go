package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
	"github.com/trezcool/wazazi/core/billing"
	"github.com/trezcool/wazazi/core/family"
	"github.com/trezcool/wazazi/core/school"
	emailsvc "github.com/trezcool/wazazi/services/email"
	inmemdb "github.com/trezcool/wazazi/storage/database/inmem"
)

var (
	conf *core.Config

	profileRepo account.Repository
	schoolRepo  school.Repository
	familyRepo  family.Repository
	billingRepo billing.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func setup(t *testing.T) Server {
	t.Helper()

	conf = &core.Config{
		Env:       "TEST",
		TestMode:  true,
		AppName:   "Wazazi",
		SecretKey: "secret",
		WorkDir:   core.Getwd(),
		Server:    core.ServerConfig{JWTExpirationDelta: 10 * time.Minute},
	}
	logger := core.StdLogger{Std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	profileRepo = inmemdb.NewProfileRepository(db)
	schoolRepo = inmemdb.NewSchoolRepository(db)
	familyRepo = inmemdb.NewFamilyRepository(db)
	billingRepo = inmemdb.NewBillingRepository(db)

	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	return NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,
		AccountSvc:     account.NewService(profileRepo),
		SchoolSvc:      school.NewService(schoolRepo),
		FamilySvc:      family.NewService(familyRepo),
		BillingSvc:     billing.NewService(billingRepo, mailSvc, conf, logger),
	})
}

// seeding helpers; they write through the repositories directly

func createSchool(t *testing.T, name string) school.School {
	t.Helper()
	now := time.Now().UTC()
	sch, err := schoolRepo.CreateSchool(context.Background(), school.School{
		Name: name, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createSchool(): %v", err)
	}
	return sch
}

func createProfile(t *testing.T, name string, role core.Role, schoolID string) account.UserProfile {
	t.Helper()
	now := time.Now().UTC()
	prof, err := profileRepo.CreateProfile(context.Background(), account.UserProfile{
		FullName: name, Role: role, SchoolID: schoolID, UserID: uuid.New().String(),
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createProfile(): %v", err)
	}
	return prof
}

func createClass(t *testing.T, name, schoolID, teacherID string) school.Class {
	t.Helper()
	now := time.Now().UTC()
	cls, err := schoolRepo.CreateClass(context.Background(), school.Class{
		Name: name, SchoolID: schoolID, TeacherID: teacherID, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createClass(): %v", err)
	}
	return cls
}

func createParent(t *testing.T, name, email, schoolID, userID string) family.Parent {
	t.Helper()
	now := time.Now().UTC()
	par, err := familyRepo.CreateParent(context.Background(), family.Parent{
		Name: name, Email: email, SchoolID: schoolID, UserID: userID,
		CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createParent(): %v", err)
	}
	return par
}

func createStudent(t *testing.T, name, parentID, classID string) family.Student {
	t.Helper()
	now := time.Now().UTC()
	std, err := familyRepo.CreateStudent(context.Background(), family.Student{
		Name: name, ParentID: parentID, ClassID: classID, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createStudent(): %v", err)
	}
	return std
}

func createPayment(t *testing.T, parentID, category string, amount float64, createdBy string, at ...time.Time) billing.Payment {
	t.Helper()
	createdAt := time.Now().UTC()
	if len(at) > 0 {
		createdAt = at[0]
	}
	pmt, err := billingRepo.CreatePayment(context.Background(), billing.Payment{
		ParentID: parentID, Amount: amount, Category: category,
		PaymentMethod: billing.MethodCash, CreatedBy: createdBy, CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("createPayment(): %v", err)
	}
	return pmt
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, prof account.UserProfile) string {
	claims := GetProfileClaims(conf, prof)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

// getUnknownRoleToken mints a token whose role is outside the known set.
func getUnknownRoleToken(t *testing.T, schoolID string) string {
	claims := GetProfileClaims(conf, account.UserProfile{
		FullName: "Mystery", SchoolID: schoolID, UserID: uuid.New().String(),
	})
	claims.Role = "superhero"
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getUnknownRoleToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = make([]interface{}, 0)
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(tt.wantData)),
			B:        difflib.SplitLines(rec.Body.String()),
			FromFile: "want",
			ToFile:   "got",
			Context:  2,
		})
		t.Errorf("failed! data mismatch:\n%s", diff)
	}
}
