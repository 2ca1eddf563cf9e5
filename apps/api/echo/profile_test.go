package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/wazazi/core"
	"github.com/trezcool/wazazi/core/account"
)

func Test_profileApi_create(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	otherSch := createSchool(t, "Lisanga Academy")
	admin := createProfile(t, "Admin", core.RoleAdmin, sch.ID)
	adminToken := getToken(t, admin)

	// an authenticated identity that has not signed in before
	newcomer := account.UserProfile{UserID: uuid.New().String(), Role: core.RoleParent, SchoolID: sch.ID}
	newcomerToken := getToken(t, newcomer)

	t.Run("Required fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/profiles", adminToken, []byte("{}"))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"full_name": "this field is required",
				"role":      "this field is required",
				"school_id": "this field is required",
				"user_id":   "this field is required",
			}),
		}, rec)
	})

	t.Run("Role must be known", func(t *testing.T) {
		body := marchallObj(t, account.NewProfile{FullName: "Mama Lucie", Role: "superhero", SchoolID: sch.ID, UserID: newcomer.UserID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/profiles", adminToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		}, rec)
	})

	t.Run("First sign-in self-registration", func(t *testing.T) {
		body := marchallObj(t, account.NewProfile{FullName: "Mama Lucie", Role: "parent", SchoolID: sch.ID, UserID: newcomer.UserID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/profiles", newcomerToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), newcomer.UserID)
	})

	t.Run("One profile per identity", func(t *testing.T) {
		body := marchallObj(t, account.NewProfile{FullName: "Mama Lucie", Role: "parent", SchoolID: sch.ID, UserID: newcomer.UserID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/profiles", newcomerToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"user_id": "a profile for this user already exists"}),
		}, rec)
	})

	t.Run("Non-admin cannot register someone else", func(t *testing.T) {
		body := marchallObj(t, account.NewProfile{FullName: "Someone Else", Role: "parent", SchoolID: sch.ID, UserID: uuid.New().String()})
		req, rec := newAuthRequest(http.MethodPost, "/v1/profiles", newcomerToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("Non-admin cannot claim a higher role", func(t *testing.T) {
		other := account.UserProfile{UserID: uuid.New().String(), Role: core.RoleParent, SchoolID: sch.ID}
		body := marchallObj(t, account.NewProfile{FullName: "Ambitious", Role: "treasurer", SchoolID: sch.ID, UserID: other.UserID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/profiles", getToken(t, other), body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Admin registers across identities", func(t *testing.T) {
		body := marchallObj(t, account.NewProfile{FullName: "Trea Surer", Role: "treasurer", SchoolID: otherSch.ID, UserID: uuid.New().String()})
		req, rec := newAuthRequest(http.MethodPost, "/v1/profiles", adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
}

func Test_profileApi_query(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	otherSch := createSchool(t, "Lisanga Academy")

	admin := createProfile(t, "Admin", core.RoleAdmin, sch.ID)
	parentProf := createProfile(t, "Parent", core.RoleParent, sch.ID)
	teacherProf := createProfile(t, "Teacher", core.RoleTeacher, sch.ID)
	createProfile(t, "Far Admin", core.RoleAdmin, otherSch.ID)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/profiles", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			// the far school's profile never shows
			name: "Staff sees the whole school", path: "/v1/profiles", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, admin, parentProf, teacherProf),
		},
		{
			name: "Non-staff sees self only", path: "/v1/profiles", token: getToken(t, teacherProf),
			wantCode: http.StatusOK, wantData: marchallList(t, teacherProf),
		},
		{
			name: "role filter", path: "/v1/profiles?role=parent", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, parentProf),
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

func Test_profileApi_retrieve(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	otherSch := createSchool(t, "Lisanga Academy")

	treasurer := createProfile(t, "Trea Surer", core.RoleTreasurer, sch.ID)
	parentProf := createProfile(t, "Parent", core.RoleParent, sch.ID)
	farProf := createProfile(t, "Far Parent", core.RoleParent, otherSch.ID)

	notFound := marchallObj(t, httpErr{Error: "profile not found"})

	tests := []httpTest{
		{
			name: "Own profile", path: "/v1/profiles/me", token: getToken(t, parentProf),
			wantCode: http.StatusOK, wantData: marchallObj(t, parentProf),
		},
		{
			name: "Staff retrieves any profile of the school", path: "/v1/profiles/" + parentProf.ID, token: getToken(t, treasurer),
			wantCode: http.StatusOK, wantData: marchallObj(t, parentProf),
		},
		{
			name: "Non-staff cannot retrieve others", path: "/v1/profiles/" + treasurer.ID, token: getToken(t, parentProf),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			// out-of-scope lookups look exactly like nonexistent ids
			name: "Another school's profile looks nonexistent", path: "/v1/profiles/" + farProf.ID, token: getToken(t, treasurer),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "Nonexistent", path: "/v1/profiles/" + uuid.New().String(), token: getToken(t, treasurer),
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

func Test_profileApi_updateAndDelete(t *testing.T) {
	app := setup(t)

	sch := createSchool(t, "Bumi Primary")
	admin := createProfile(t, "Admin", core.RoleAdmin, sch.ID)
	treasurer := createProfile(t, "Trea Surer", core.RoleTreasurer, sch.ID)
	parentProf := createProfile(t, "Parent", core.RoleParent, sch.ID)

	t.Run("Self rename", func(t *testing.T) {
		body := marchallObj(t, account.UpdateProfile{FullName: "Renamed Parent"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/profiles/"+parentProf.ID, getToken(t, parentProf), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		refreshed, err := profileRepo.GetProfileByID(context.Background(), parentProf.ID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed Parent", refreshed.FullName)
		assert.Equal(t, core.RoleParent, refreshed.Role)
	})

	t.Run("Role change is admin-only", func(t *testing.T) {
		body := marchallObj(t, account.UpdateProfile{Role: "treasurer"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/profiles/"+parentProf.ID, getToken(t, treasurer), body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)
	})

	t.Run("Admin promotes", func(t *testing.T) {
		body := marchallObj(t, account.UpdateProfile{Role: "treasurer"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/profiles/"+parentProf.ID, getToken(t, admin), body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		refreshed, err := profileRepo.GetProfileByID(context.Background(), parentProf.ID)
		require.NoError(t, err)
		assert.Equal(t, core.RoleTreasurer, refreshed.Role)
	})

	t.Run("Destroy is admin-only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/profiles?id="+parentProf.ID, getToken(t, treasurer))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/profiles?id="+parentProf.ID, getToken(t, admin))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		_, err := profileRepo.GetProfileByID(context.Background(), parentProf.ID)
		assert.Equal(t, account.ErrNotFound, err)
	})
}
