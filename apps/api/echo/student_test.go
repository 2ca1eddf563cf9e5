package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/family"
)

func Test_studentApi_query(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	otherSch := createSchool(t, "Lisanga Academy")

	treasurer := createProfile(t, "Trea Surer", core.RoleTreasurer, sch.ID)
	teacherProf := createProfile(t, "Mwalimu Jean", core.RoleTeacher, sch.ID)
	otherTeacherProf := createProfile(t, "Mwalimu Paul", core.RoleTeacher, sch.ID)
	parentProf := createProfile(t, "Parent", core.RoleParent, sch.ID)

	cls := createClass(t, "6th Grade", sch.ID, teacherProf.ID)
	otherCls := createClass(t, "5th Grade", sch.ID, otherTeacherProf.ID)

	par := createParent(t, "Mama Lucie", "lucie@test.cd", sch.ID, parentProf.UserID)
	par2 := createParent(t, "Papa Nzita", "nzita@test.cd", sch.ID, "")
	farPar := createParent(t, "Mama Far", "far@test.cd", otherSch.ID, "")

	std1 := createStudent(t, "Aimé", par.ID, cls.ID)
	std2 := createStudent(t, "Bintu", par.ID, otherCls.ID)
	std3 := createStudent(t, "Céline", par2.ID, cls.ID)
	createStudent(t, "Distant", farPar.ID, "")

	// flattened relation names come back on list reads
	std1.ParentName, std1.ClassName = par.Name, cls.Name
	std2.ParentName, std2.ClassName = par.Name, otherCls.Name
	std3.ParentName, std3.ClassName = par2.Name, cls.Name

	tests := []httpTest{
		{name: "Auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			// the far school's student never shows
			name: "Staff sees the whole school", path: "/v1/students", token: getToken(t, treasurer),
			wantCode: http.StatusOK, wantData: marchallList(t, std1, std2, std3),
		},
		{
			name: "Teacher sees own classes only", path: "/v1/students", token: getToken(t, teacherProf),
			wantCode: http.StatusOK, wantData: marchallList(t, std1, std3),
		},
		{
			name: "Parent sees own children only", path: "/v1/students", token: getToken(t, parentProf),
			wantCode: http.StatusOK, wantData: marchallList(t, std1, std2),
		},
		{
			// filtering by someone else's parent id does not widen the scope
			name: "Parent cannot filter into another family", path: "/v1/students?parent_id=" + par2.ID, token: getToken(t, parentProf),
			wantCode: http.StatusOK, wantData: marchallList(t),
		},
		{
			name: "class filter", path: "/v1/students?class_id=" + cls.ID, token: getToken(t, treasurer),
			wantCode: http.StatusOK, wantData: marchallList(t, std1, std3),
		},
		{
			name: "search", path: "/v1/students?search=bin", token: getToken(t, treasurer),
			wantCode: http.StatusOK, wantData: marchallList(t, std2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_retrieve(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	otherSch := createSchool(t, "Lisanga Academy")

	treasurer := createProfile(t, "Trea Surer", core.RoleTreasurer, sch.ID)
	teacherProf := createProfile(t, "Mwalimu Jean", core.RoleTeacher, sch.ID)
	parentProf := createProfile(t, "Parent", core.RoleParent, sch.ID)

	cls := createClass(t, "6th Grade", sch.ID, teacherProf.ID)

	par := createParent(t, "Mama Lucie", "lucie@test.cd", sch.ID, parentProf.UserID)
	par2 := createParent(t, "Papa Nzita", "nzita@test.cd", sch.ID, "")
	farPar := createParent(t, "Mama Far", "far@test.cd", otherSch.ID, "")

	std := createStudent(t, "Aimé", par.ID, cls.ID)
	unassigned := createStudent(t, "Bintu", par2.ID, "")
	farStd := createStudent(t, "Distant", farPar.ID, "")

	std.ParentName, std.ClassName = par.Name, cls.Name
	unassigned.ParentName = par2.Name

	notFound := marchallObj(t, httpErr{Error: "student not found"})

	tests := []httpTest{
		{
			name: "Staff retrieves any student", path: "/v1/students/" + std.ID, token: getToken(t, treasurer),
			wantCode: http.StatusOK, wantData: marchallObj(t, std),
		},
		{
			name: "Teacher retrieves a student of own class", path: "/v1/students/" + std.ID, token: getToken(t, teacherProf),
			wantCode: http.StatusOK, wantData: marchallObj(t, std),
		},
		{
			// not in any of the teacher's classes
			name: "Teacher asks for an unassigned student", path: "/v1/students/" + unassigned.ID, token: getToken(t, teacherProf),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "Parent retrieves own child", path: "/v1/students/" + std.ID, token: getToken(t, parentProf),
			wantCode: http.StatusOK, wantData: marchallObj(t, std),
		},
		{
			name: "Parent asks for another family's child", path: "/v1/students/" + unassigned.ID, token: getToken(t, parentProf),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "Another school's student looks nonexistent", path: "/v1/students/" + farStd.ID, token: getToken(t, treasurer),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "Nonexistent", path: "/v1/students/" + uuid.New().String(), token: getToken(t, treasurer),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_create(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	otherSch := createSchool(t, "Lisanga Academy")

	treasurer := createProfile(t, "Trea Surer", core.RoleTreasurer, sch.ID)
	teacherProf := createProfile(t, "Mwalimu Jean", core.RoleTeacher, sch.ID)
	treasurerToken := getToken(t, treasurer)

	paidPar := createParent(t, "Mama Lucie", "lucie@test.cd", sch.ID, "")
	createPayment(t, paidPar.ID, "annual_dues", 100, treasurer.UserID)
	unpaidPar := createParent(t, "Papa Nzita", "nzita@test.cd", sch.ID, "")
	farPar := createParent(t, "Mama Far", "far@test.cd", otherSch.ID, "")

	t.Run("Teacher cannot create students", func(t *testing.T) {
		body := marchallObj(t, family.NewStudent{Name: "Aimé", ParentID: unpaidPar.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", getToken(t, teacherProf), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("Required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", treasurerToken, []byte("{}"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":      "this field is required",
				"parent_id": "this field is required",
			}),
		}, rec)
	})

	t.Run("Cross-school parent rejected like a missing one", func(t *testing.T) {
		body := marchallObj(t, family.NewStudent{Name: "Aimé", ParentID: farPar.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", treasurerToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"parent_id": "parent not found"}),
		}, rec)
	})

	t.Run("Inherits the parent's payment flag", func(t *testing.T) {
		body := marchallObj(t, family.NewStudent{Name: "Aimé", ParentID: paidPar.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", treasurerToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var std family.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &std))
		assert.True(t, std.PaymentStatus)
	})

	t.Run("Unpaid parent's new student starts unpaid", func(t *testing.T) {
		body := marchallObj(t, family.NewStudent{Name: "Bintu", ParentID: unpaidPar.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", treasurerToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var std family.Student
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &std))
		assert.False(t, std.PaymentStatus)
	})
}

func Test_studentApi_updateAndDelete(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	treasurer := createProfile(t, "Trea Surer", core.RoleTreasurer, sch.ID)
	teacherProf := createProfile(t, "Mwalimu Jean", core.RoleTeacher, sch.ID)
	treasurerToken := getToken(t, treasurer)

	cls := createClass(t, "6th Grade", sch.ID, teacherProf.ID)
	par := createParent(t, "Mama Lucie", "lucie@test.cd", sch.ID, "")
	std := createStudent(t, "Aimé", par.ID, "")

	t.Run("Teacher cannot update", func(t *testing.T) {
		body := marchallObj(t, family.UpdateStudent{Name: "Renamed"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+std.ID, getToken(t, teacherProf), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Assign to a class", func(t *testing.T) {
		body := marchallObj(t, family.UpdateStudent{ClassID: cls.ID})
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+std.ID, treasurerToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		refreshed, err := familyRepo.GetStudentByID(context.Background(), std.ID)
		require.NoError(t, err)
		assert.Equal(t, cls.ID, refreshed.ClassID)
		assert.Equal(t, "Aimé", refreshed.Name) // untouched fields survive
	})

	t.Run("Destroy multiple", func(t *testing.T) {
		std2 := createStudent(t, "Bintu", par.ID, "")
		req, rec := newAuthRequest(http.MethodDelete, "/v1/students?id="+std.ID+"&id="+std2.ID, treasurerToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		_, err := familyRepo.GetStudentByID(context.Background(), std.ID)
		assert.Equal(t, family.ErrStudentNotFound, err)
	})
}
