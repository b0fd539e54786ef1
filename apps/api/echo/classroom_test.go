package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
)

func Test_classroomApi_create(t *testing.T) {
	app, repo, conf := setup(t)
	token := getToken(t, conf, core.Principal{ID: "usr1", Email: "usr1@test.cd", OrganizationID: "org1"})

	createClassroom(t, repo, "Taken", "Math", "DUP111", "org1")

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/classrooms",
			body: marchallObj(t, classroom.NewClassroom{Name: "Math 101", Subject: "Math", Code: "abc123"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "name required", method: http.MethodPost, path: "/v1/classrooms", token: token,
			body:     marchallObj(t, classroom.NewClassroom{Subject: "Math", Code: "abc123"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"})},
		{name: "subject required", method: http.MethodPost, path: "/v1/classrooms", token: token,
			body:     marchallObj(t, classroom.NewClassroom{Name: "Math 101", Code: "abc123"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"subject": "this field is required"})},
		{name: "code charset checked", method: http.MethodPost, path: "/v1/classrooms", token: token,
			body:     marchallObj(t, classroom.NewClassroom{Name: "Math 101", Subject: "Math", Code: "ab-!23"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"code": "only letters and digits are allowed"})},
		{name: "duplicate code conflicts", method: http.MethodPost, path: "/v1/classrooms", token: token,
			body:     marchallObj(t, classroom.NewClassroom{Name: "Math 102", Subject: "Math", Code: "dup111"}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: classroom.ErrCodeExists.Error()})},
		{name: "created", method: http.MethodPost, path: "/v1/classrooms", token: token,
			body:     marchallObj(t, classroom.NewClassroom{Name: "Math 101", Subject: "Math", Description: "numbers", Code: "abc123"}),
			wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name != "created" {
				return
			}
			var cls classroom.Classroom
			if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
				t.Fatalf("unmarshalling created classroom: %v", err)
			}
			if cls.ID == "" {
				t.Error("created classroom has no ID")
			}
			if cls.Code != "ABC123" {
				t.Errorf("Code = %q; want normalized %q", cls.Code, "ABC123")
			}
			if cls.OrganizationID != "org1" {
				t.Errorf("OrganizationID = %q; want principal's org %q", cls.OrganizationID, "org1")
			}
			if cls.StudentCount != 0 || len(cls.Students) != 0 {
				t.Errorf("new classroom roster not empty: %+v", cls)
			}
		})
	}
}

func Test_classroomApi_createUnauthedSkipsStore(t *testing.T) {
	app, repo, _ := setup(t)

	body := marchallObj(t, classroom.NewClassroom{Name: "Math 101", Subject: "Math", Code: "abc123"})
	req, rec := newRequest(http.MethodPost, "/v1/classrooms", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusUnauthorized)
	}
	if calls := repo.Calls(); len(calls) != 0 {
		t.Errorf("store was hit before auth: %v", calls)
	}

	req, rec = newRequest(http.MethodGet, "/v1/classrooms")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %v; want %v", rec.Code, http.StatusUnauthorized)
	}
	if calls := repo.Calls(); len(calls) != 0 {
		t.Errorf("store was hit before auth: %v", calls)
	}
}

func Test_classroomApi_query(t *testing.T) {
	app, repo, conf := setup(t)

	now := time.Now()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)

	clsA1 := createClassroom(t, repo, "A1", "Math", "AAA111", "orgA", t1)
	clsA2 := createClassroom(t, repo, "A2", "Bio", "AAA222", "orgA", t3)
	clsB1 := createClassroom(t, repo, "B1", "Art", "BBB111", "orgB", t2)

	orgAToken := getToken(t, conf, core.Principal{ID: "usr1", OrganizationID: "orgA"})
	lonerToken := getToken(t, conf, core.Principal{ID: "usr2"})

	path := func(orgID string) string {
		if orgID == "" {
			return "/v1/classrooms"
		}
		v := make(url.Values)
		v.Add("organization_id", orgID)
		return "/v1/classrooms?" + v.Encode()
	}

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: path(""),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "defaults to principal org, newest first", method: http.MethodGet, path: path(""), token: orgAToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, []classroom.Classroom{clsA2, clsA1})},
		{name: "explicit org filter", method: http.MethodGet, path: path("orgB"), token: orgAToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, []classroom.Classroom{clsB1})},
		{name: "no org and no classrooms", method: http.MethodGet, path: path(""), token: lonerToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, []classroom.Classroom{})},
		{name: "oldest first ordering", method: http.MethodGet, path: path("orgA") + "&ordering=created_at", token: orgAToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, []classroom.Classroom{clsA1, clsA2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classroomApi_verifyCode(t *testing.T) {
	app, repo, _ := setup(t)

	cls := createClassroom(t, repo, "Math 101", "Math", "ABC123", "org1")
	info := cls.PublicInfo()

	tests := []httpTest{
		{name: "code required", method: http.MethodGet, path: "/v1/classrooms/verify",
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"code": "this field is required"})},
		{name: "unknown code", method: http.MethodGet, path: "/v1/classrooms/verify?code=NOPE42",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, VerifyCodeResponse{Valid: false, Error: "invalid code"})},
		{name: "exact code", method: http.MethodGet, path: "/v1/classrooms/verify?code=ABC123",
			wantCode: http.StatusOK, wantData: marchallObj(t, VerifyCodeResponse{Valid: true, Classroom: &info})},
		{name: "lowercase code", method: http.MethodGet, path: "/v1/classrooms/verify?code=abc123",
			wantCode: http.StatusOK, wantData: marchallObj(t, VerifyCodeResponse{Valid: true, Classroom: &info})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the roster never leaks through the public path
	req, rec := newRequest(http.MethodGet, "/v1/classrooms/verify?code=ABC123")
	app.ServeHTTP(rec, req)
	var raw map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshalling verify response: %v", err)
	}
	if clsRaw, ok := raw["classroom"].(map[string]interface{}); !ok {
		t.Fatal("verify response has no classroom")
	} else if _, leaked := clsRaw["students"]; leaked {
		t.Error("verify response leaks the students roster")
	}
}

func Test_classroomApi_join(t *testing.T) {
	app, repo, conf := setup(t)
	token := getToken(t, conf, core.Principal{ID: "usr1", OrganizationID: "org1"})

	cls := createClassroom(t, repo, "Math 101", "Math", "XYZ789", "org1")

	joinBody := func(classroomID, studentID, email string) []byte {
		return marchallObj(t, classroom.JoinClassroom{ClassroomID: classroomID, StudentID: studentID, StudentEmail: email})
	}

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/classrooms/join",
			body:     joinBody(cls.ID, "stu1", "stu1@test.cd"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student id required", method: http.MethodPost, path: "/v1/classrooms/join", token: token,
			body:     joinBody(cls.ID, "", "stu1@test.cd"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"student_id": "this field is required"})},
		{name: "valid email required", method: http.MethodPost, path: "/v1/classrooms/join", token: token,
			body:     joinBody(cls.ID, "stu1", "not-an-email"),
			wantCode: http.StatusBadRequest},
		{name: "unknown classroom", method: http.MethodPost, path: "/v1/classrooms/join", token: token,
			body:     joinBody("missing", "stu1", "stu1@test.cd"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: classroom.ErrNotFound.Error()})},
		{name: "joined", method: http.MethodPost, path: "/v1/classrooms/join", token: token,
			body:     joinBody(cls.ID, "stu1", "stu1@test.cd"),
			wantCode: http.StatusOK},
		{name: "already joined", method: http.MethodPost, path: "/v1/classrooms/join", token: token,
			body:     joinBody(cls.ID, "stu1", "stu1@test.cd"),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: classroom.ErrAlreadyJoined.Error()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.name != "joined" {
				return
			}
			var resp JoinResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshalling join response: %v", err)
			}
			if !resp.Success || resp.Classroom.ID != cls.ID || resp.Classroom.StudentCount != 1 {
				t.Errorf("join response = %+v", resp)
			}
		})
	}

	// the duplicate join did not mutate the roster
	got, err := repo.GetClassroomByID(context.Background(), cls.ID)
	if err != nil {
		t.Fatalf("GetClassroomByID() failed: %v", err)
	}
	if got.StudentCount != 1 || len(got.Students) != 1 {
		t.Errorf("StudentCount = %d, roster len = %d; want 1, 1", got.StudentCount, len(got.Students))
	}
}

// Full client flow: create -> verify -> join -> duplicate join.
func Test_classroomApi_endToEnd(t *testing.T) {
	app, repo, conf := setup(t)
	token := getToken(t, conf, core.Principal{ID: "org1", Email: "owner@test.cd"})

	// create
	req, rec := newAuthRequest(http.MethodPost, "/v1/classrooms", token,
		marchallObj(t, classroom.NewClassroom{Name: "Math 101", Subject: "Math", Code: "xyz789"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var cls classroom.Classroom
	if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
		t.Fatalf("create: %v", err)
	}
	if cls.OrganizationID != "org1" {
		t.Errorf("create: OrganizationID = %q; want %q", cls.OrganizationID, "org1")
	}

	// verify with different casing
	req, rec = newRequest(http.MethodGet, "/v1/classrooms/verify?code=XYZ789")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var verify VerifyCodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &verify); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verify.Valid || verify.Classroom == nil || verify.Classroom.Code != "XYZ789" {
		t.Errorf("verify: %+v", verify)
	}

	// join
	joinBody := marchallObj(t, classroom.JoinClassroom{ClassroomID: cls.ID, StudentID: "stu1", StudentEmail: "stu1@test.cd"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/classrooms/join", token, joinBody)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("join: code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var joined JoinResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &joined); err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Classroom.StudentCount != 1 {
		t.Errorf("join: StudentCount = %d; want 1", joined.Classroom.StudentCount)
	}

	// duplicate join is rejected and the count holds
	req, rec = newAuthRequest(http.MethodPost, "/v1/classrooms/join", token, joinBody)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate join: code = %v; want %v", rec.Code, http.StatusConflict)
	}
	got, err := repo.GetClassroomByID(context.Background(), cls.ID)
	if err != nil {
		t.Fatalf("GetClassroomByID() failed: %v", err)
	}
	if got.StudentCount != 1 {
		t.Errorf("duplicate join: StudentCount = %d; want 1", got.StudentCount)
	}
}
