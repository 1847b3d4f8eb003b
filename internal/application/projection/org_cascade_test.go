package projection

import (
	"context"
	"testing"

	iamdomain "github.com/nexusiam/iamcore/internal/domain"
	coredomain "github.com/nexusiam/iamcore/pkg/domain"
	"gorm.io/gorm"
)

// seedCascadeFixtures migrates every table the cascade touches and inserts
// one active row per table scoped to org-1, plus a matching org-2 row in
// each org/project-scoped table so the test can assert the cascade leaves
// the other org untouched.
func seedCascadeFixtures(t *testing.T, db *gorm.DB) {
	t.Helper()
	if err := db.AutoMigrate(
		&UserRow{}, &ProjectRow{}, &IDPConfigRow{}, &UserGrantRow{},
		&SessionRow{}, &IDPIntentRow{}, &ProjectRoleRow{}, &ProjectMemberRow{},
		&ApplicationRow{}, &TargetRow{}, &ExecutionRow{},
	); err != nil {
		t.Fatalf("failed to migrate cascade fixture tables: %v", err)
	}

	rows := []interface{}{
		&UserRow{ID: "user-1", OrgID: "org-1", State: string(iamdomain.UserStateActive)},
		&UserRow{ID: "user-2", OrgID: "org-2", State: string(iamdomain.UserStateActive)},

		&ProjectRow{ID: "project-1", OrgID: "org-1", State: string(iamdomain.ProjectStateActive)},
		&ProjectRow{ID: "project-2", OrgID: "org-2", State: string(iamdomain.ProjectStateActive)},

		&IDPConfigRow{ID: "idp-1", OrgID: "org-1", State: string(iamdomain.IDPConfigStateActive)},
		&IDPConfigRow{ID: "idp-2", OrgID: "org-2", State: string(iamdomain.IDPConfigStateActive)},

		&UserGrantRow{ID: "grant-1", OrgID: "org-1", ProjectID: "project-1", UserID: "user-1", State: string(iamdomain.UserGrantStateActive)},
		&UserGrantRow{ID: "grant-2", OrgID: "org-2", ProjectID: "project-2", UserID: "user-2", State: string(iamdomain.UserGrantStateActive)},

		&SessionRow{ID: "session-1", OrgID: "org-1", UserID: "user-1", State: string(iamdomain.SessionStateActive)},
		&SessionRow{ID: "session-2", OrgID: "org-2", UserID: "user-2", State: string(iamdomain.SessionStateActive)},

		&IDPIntentRow{ID: "intent-1", OrgID: "org-1", IDPConfigID: "idp-1", Status: string(iamdomain.IDPIntentStateStarted)},
		&IDPIntentRow{ID: "intent-2", OrgID: "org-2", IDPConfigID: "idp-2", Status: string(iamdomain.IDPIntentStateStarted)},

		&ProjectRoleRow{ID: "role-1", ProjectID: "project-1", State: string(iamdomain.ProjectRoleStateActive)},
		&ProjectRoleRow{ID: "role-2", ProjectID: "project-2", State: string(iamdomain.ProjectRoleStateActive)},

		&ProjectMemberRow{ID: "member-1", ProjectID: "project-1", UserID: "user-1", State: string(iamdomain.ProjectMemberStateActive)},
		&ProjectMemberRow{ID: "member-2", ProjectID: "project-2", UserID: "user-2", State: string(iamdomain.ProjectMemberStateActive)},

		&ApplicationRow{ID: "app-1", ProjectID: "project-1", State: string(iamdomain.AppStateActive)},
		&ApplicationRow{ID: "app-2", ProjectID: "project-2", State: string(iamdomain.AppStateActive)},

		&TargetRow{ID: "target-1", ProjectID: "project-1", State: string(iamdomain.TargetStateActive)},
		&TargetRow{ID: "target-2", ProjectID: "project-2", State: string(iamdomain.TargetStateActive)},

		&ExecutionRow{ID: "exec-1", ProjectID: "project-1", Removed: false},
		&ExecutionRow{ID: "exec-2", ProjectID: "project-2", Removed: false},
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("failed to seed fixture %+v: %v", row, err)
		}
	}
}

func orgRemovedEnvelope(orgID string) coredomain.Envelope {
	event := coredomain.NewEntityEvent(context.Background(), nopLogger{}, "org", "removed", orgID, nil)
	return fakeEnvelope{event: event, position: 1, aggregateType: "org"}
}

func TestCascadeProjection_OrgRemoved_UpdatesOnlyThatOrgsRows(t *testing.T) {
	db := newTestDB(t)
	seedCascadeFixtures(t, db)

	cascade := NewCascadeProjection(db)
	if err := cascade.Reduce(context.Background(), orgRemovedEnvelope("org-1")); err != nil {
		t.Fatalf("Reduce returned unexpected error: %v", err)
	}

	var project1, project2 ProjectRow
	db.First(&project1, "id = ?", "project-1")
	db.First(&project2, "id = ?", "project-2")
	if project1.State != string(iamdomain.ProjectStateRemoved) {
		t.Errorf("expected project-1 removed, got %s", project1.State)
	}
	if project2.State != string(iamdomain.ProjectStateActive) {
		t.Errorf("expected project-2 untouched, got %s", project2.State)
	}

	var idp1, idp2 IDPConfigRow
	db.First(&idp1, "id = ?", "idp-1")
	db.First(&idp2, "id = ?", "idp-2")
	if idp1.State != string(iamdomain.IDPConfigStateRemoved) {
		t.Errorf("expected idp-1 removed, got %s", idp1.State)
	}
	if idp2.State != string(iamdomain.IDPConfigStateActive) {
		t.Errorf("expected idp-2 untouched, got %s", idp2.State)
	}

	var grant1, grant2 UserGrantRow
	db.First(&grant1, "id = ?", "grant-1")
	db.First(&grant2, "id = ?", "grant-2")
	if grant1.State != string(iamdomain.UserGrantStateRemoved) {
		t.Errorf("expected grant-1 removed, got %s", grant1.State)
	}
	if grant2.State != string(iamdomain.UserGrantStateActive) {
		t.Errorf("expected grant-2 untouched, got %s", grant2.State)
	}

	var user1, user2 UserRow
	db.First(&user1, "id = ?", "user-1")
	db.First(&user2, "id = ?", "user-2")
	if user1.State != string(iamdomain.UserStateDeleted) {
		t.Errorf("expected user-1 deleted, got %s", user1.State)
	}
	if user2.State != string(iamdomain.UserStateActive) {
		t.Errorf("expected user-2 untouched, got %s", user2.State)
	}

	var session1, session2 SessionRow
	db.First(&session1, "id = ?", "session-1")
	db.First(&session2, "id = ?", "session-2")
	if session1.State != string(iamdomain.SessionStateTerminated) {
		t.Errorf("expected session-1 terminated, got %s", session1.State)
	}
	if session2.State != string(iamdomain.SessionStateActive) {
		t.Errorf("expected session-2 untouched, got %s", session2.State)
	}

	var intent1, intent2 IDPIntentRow
	db.First(&intent1, "id = ?", "intent-1")
	db.First(&intent2, "id = ?", "intent-2")
	if intent1.Status != "failed" {
		t.Errorf("expected intent-1 failed, got %s", intent1.Status)
	}
	if intent2.Status != string(iamdomain.IDPIntentStateStarted) {
		t.Errorf("expected intent-2 untouched, got %s", intent2.Status)
	}

	// Project-scoped rows, reached through the project-id subquery.
	var role1, role2 ProjectRoleRow
	db.First(&role1, "id = ?", "role-1")
	db.First(&role2, "id = ?", "role-2")
	if role1.State != string(iamdomain.ProjectRoleStateRemoved) {
		t.Errorf("expected role-1 removed, got %s", role1.State)
	}
	if role2.State != string(iamdomain.ProjectRoleStateActive) {
		t.Errorf("expected role-2 untouched, got %s", role2.State)
	}

	var member1, member2 ProjectMemberRow
	db.First(&member1, "id = ?", "member-1")
	db.First(&member2, "id = ?", "member-2")
	if member1.State != string(iamdomain.ProjectMemberStateRemoved) {
		t.Errorf("expected member-1 removed, got %s", member1.State)
	}
	if member2.State != string(iamdomain.ProjectMemberStateActive) {
		t.Errorf("expected member-2 untouched, got %s", member2.State)
	}

	var app1, app2 ApplicationRow
	db.First(&app1, "id = ?", "app-1")
	db.First(&app2, "id = ?", "app-2")
	if app1.State != string(iamdomain.AppStateRemoved) {
		t.Errorf("expected app-1 removed, got %s", app1.State)
	}
	if app2.State != string(iamdomain.AppStateActive) {
		t.Errorf("expected app-2 untouched, got %s", app2.State)
	}

	var target1, target2 TargetRow
	db.First(&target1, "id = ?", "target-1")
	db.First(&target2, "id = ?", "target-2")
	if target1.State != string(iamdomain.TargetStateRemoved) {
		t.Errorf("expected target-1 removed, got %s", target1.State)
	}
	if target2.State != string(iamdomain.TargetStateActive) {
		t.Errorf("expected target-2 untouched, got %s", target2.State)
	}

	var exec1, exec2 ExecutionRow
	db.First(&exec1, "id = ?", "exec-1")
	db.First(&exec2, "id = ?", "exec-2")
	if !exec1.Removed {
		t.Error("expected exec-1 marked removed")
	}
	if exec2.Removed {
		t.Error("expected exec-2 untouched")
	}
}

func TestCascadeProjection_IgnoresOtherEventTypes(t *testing.T) {
	db := newTestDB(t)
	seedCascadeFixtures(t, db)

	cascade := NewCascadeProjection(db)
	event := coredomain.NewEntityEvent(context.Background(), nopLogger{}, "org", "changed", "org-1", nil)
	envelope := fakeEnvelope{event: event, position: 1, aggregateType: "org"}

	if err := cascade.Reduce(context.Background(), envelope); err != nil {
		t.Fatalf("Reduce returned unexpected error: %v", err)
	}

	var project1 ProjectRow
	db.First(&project1, "id = ?", "project-1")
	if project1.State != string(iamdomain.ProjectStateActive) {
		t.Errorf("expected project-1 untouched by a non-removal event, got %s", project1.State)
	}
}
