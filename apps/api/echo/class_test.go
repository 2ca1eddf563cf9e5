package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/family"
	"github.com/trezcool/wazazi/core/school"
)

func Test_classApi_query(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	otherSch := createSchool(t, "Lisanga Academy")

	principal := createProfile(t, "Principal", core.RolePrincipal, sch.ID)
	teacherProf := createProfile(t, "Mwalimu Jean", core.RoleTeacher, sch.ID)
	otherTeacherProf := createProfile(t, "Mwalimu Paul", core.RoleTeacher, sch.ID)
	parentProf := createProfile(t, "Parent", core.RoleParent, sch.ID)

	cls1 := createClass(t, "5th Grade", sch.ID, otherTeacherProf.ID)
	cls2 := createClass(t, "6th Grade", sch.ID, teacherProf.ID)
	cls3 := createClass(t, "7th Grade", sch.ID, "")
	createClass(t, "Far Grade", otherSch.ID, "")

	tests := []httpTest{
		{name: "Auth required", path: "/v1/classes", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Parents cannot list classes", path: "/v1/classes", token: getToken(t, parentProf),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			// the far school's class never shows
			name: "Staff sees the whole school", path: "/v1/classes", token: getToken(t, principal),
			wantCode: http.StatusOK, wantData: marchallList(t, cls1, cls2, cls3),
		},
		{
			// the unassigned class is nobody's
			name: "Teacher sees own classes only", path: "/v1/classes", token: getToken(t, teacherProf),
			wantCode: http.StatusOK, wantData: marchallList(t, cls2),
		},
		{
			name: "search", path: "/v1/classes?search=6th", token: getToken(t, principal),
			wantCode: http.StatusOK, wantData: marchallList(t, cls2),
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

func Test_classApi_retrieve(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	otherSch := createSchool(t, "Lisanga Academy")

	principal := createProfile(t, "Principal", core.RolePrincipal, sch.ID)
	teacherProf := createProfile(t, "Mwalimu Jean", core.RoleTeacher, sch.ID)

	cls := createClass(t, "6th Grade", sch.ID, teacherProf.ID)
	otherCls := createClass(t, "5th Grade", sch.ID, "")
	farCls := createClass(t, "Far Grade", otherSch.ID, "")

	par := createParent(t, "Mama Lucie", "lucie@test.cd", sch.ID, "")
	std := createStudent(t, "Aimé", par.ID, cls.ID)
	std.ParentName, std.ClassName = par.Name, cls.Name

	withRoster := cls
	withRoster.Students = []family.Student{std}

	notFound := marchallObj(t, httpErr{Error: "class not found"})

	tests := []httpTest{
		{
			// roster eagerly loaded on detail reads
			name: "Staff retrieves with roster", path: "/v1/classes/" + cls.ID, token: getToken(t, principal),
			wantCode: http.StatusOK, wantData: marchallObj(t, withRoster),
		},
		{
			name: "Teacher retrieves own class", path: "/v1/classes/" + cls.ID, token: getToken(t, teacherProf),
			wantCode: http.StatusOK, wantData: marchallObj(t, withRoster),
		},
		{
			name: "Teacher asks for a class not their own", path: "/v1/classes/" + otherCls.ID, token: getToken(t, teacherProf),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			// out-of-scope lookups look exactly like nonexistent ids
			name: "Another school's class looks nonexistent", path: "/v1/classes/" + farCls.ID, token: getToken(t, principal),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "Nonexistent", path: "/v1/classes/" + uuid.New().String(), token: getToken(t, principal),
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

func Test_classApi_create(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	otherSch := createSchool(t, "Lisanga Academy")

	principal := createProfile(t, "Principal", core.RolePrincipal, sch.ID)
	treasurer := createProfile(t, "Trea Surer", core.RoleTreasurer, sch.ID)
	teacherProf := createProfile(t, "Mwalimu Jean", core.RoleTeacher, sch.ID)

	t.Run("Treasurer cannot create classes", func(t *testing.T) {
		body := marchallObj(t, school.NewClass{Name: "6th Grade", SchoolID: sch.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes", getToken(t, treasurer), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("Name required", func(t *testing.T) {
		body := marchallObj(t, school.NewClass{SchoolID: sch.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes", getToken(t, principal), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		}, rec)
	})

	t.Run("Cannot create in another school", func(t *testing.T) {
		body := marchallObj(t, school.NewClass{Name: "6th Grade", SchoolID: otherSch.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes", getToken(t, principal), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Principal creates a class", func(t *testing.T) {
		body := marchallObj(t, school.NewClass{Name: "6th Grade", GradeLevel: "6", SchoolID: sch.ID, TeacherID: teacherProf.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes", getToken(t, principal), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), teacherProf.ID)
	})
}

func Test_classApi_updateAndDelete(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	principal := createProfile(t, "Principal", core.RolePrincipal, sch.ID)
	teacherProf := createProfile(t, "Mwalimu Jean", core.RoleTeacher, sch.ID)
	principalToken := getToken(t, principal)

	cls := createClass(t, "6th Grade", sch.ID, "")
	par := createParent(t, "Mama Lucie", "lucie@test.cd", sch.ID, "")
	std := createStudent(t, "Aimé", par.ID, cls.ID)

	t.Run("Assign a teacher", func(t *testing.T) {
		body := marchallObj(t, school.UpdateClass{TeacherID: teacherProf.ID})
		req, rec := newAuthRequest(http.MethodPut, "/v1/classes/"+cls.ID, principalToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		refreshed, err := schoolRepo.GetClassByID(context.Background(), cls.ID)
		require.NoError(t, err)
		assert.Equal(t, teacherProf.ID, refreshed.TeacherID)
		assert.Equal(t, "6th Grade", refreshed.Name)
	})

	t.Run("Delete leaves the students unassigned", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/classes?id="+cls.ID, principalToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		_, err := schoolRepo.GetClassByID(context.Background(), cls.ID)
		assert.Equal(t, school.ErrClassNotFound, err)

		refreshed, err := familyRepo.GetStudentByID(context.Background(), std.ID)
		require.NoError(t, err)
		assert.Empty(t, refreshed.ClassID)
	})
}
