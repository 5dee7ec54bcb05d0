package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SamMuaks2/projectsandtasks-backend/models"
	"github.com/SamMuaks2/projectsandtasks-backend/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testEnv struct {
	tasks    *fakeTaskStore
	projects *fakeProjectStore
	storage  *fakeStorage
	notifier *fakeNotifier
	service  *TaskService
	rollup   *ProjectService

	admin   models.User
	pm      models.User
	member  models.User
	client  models.User
	project *models.Project
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		tasks:    newFakeTaskStore(),
		projects: newFakeProjectStore(),
		storage:  newFakeStorage(),
		notifier: &fakeNotifier{},
	}
	env.rollup = NewProjectService(env.projects, env.tasks)
	env.service = NewTaskService(env.tasks, env.projects, env.storage, env.notifier, env.rollup)

	env.admin = models.User{ID: primitive.NewObjectID(), Name: "Ada", Role: models.RoleAdmin}
	env.pm = models.User{ID: primitive.NewObjectID(), Name: "Paula", Role: models.RoleProjectManager}
	env.member = models.User{ID: primitive.NewObjectID(), Name: "Tobi", Role: models.RoleTeamMember}
	env.client = models.User{ID: primitive.NewObjectID(), Name: "Chinedu", Role: models.RoleClient}

	clientID := env.client.ID
	env.project = &models.Project{
		ID:             primitive.NewObjectID(),
		Title:          "Website Redesign",
		ProjectManager: env.pm.ID,
		Client:         &clientID,
		TeamMembers:    []primitive.ObjectID{env.member.ID},
		Status:         models.ProjectNotStarted,
	}
	if err := env.projects.Save(context.Background(), env.project); err != nil {
		t.Fatalf("seeding project: %v", err)
	}
	return env
}

func (e *testEnv) createTask(t *testing.T) *models.Task {
	t.Helper()
	assignee := e.member.ID
	task, err := e.service.CreateTask(context.Background(), CreateTaskInput{
		Title:      "Design landing page",
		ProjectID:  e.project.ID,
		AssignedTo: &assignee,
	}, e.pm)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return task
}

func (e *testEnv) submitTask(t *testing.T, taskID primitive.ObjectID, uploads []FileUpload) *models.Task {
	t.Helper()
	task, err := e.service.SubmitWork(context.Background(), taskID, "Initial draft attached", uploads, e.member)
	if err != nil {
		t.Fatalf("SubmitWork: %v", err)
	}
	return task
}

func (e *testEnv) storedTask(t *testing.T, id primitive.ObjectID) *models.Task {
	t.Helper()
	task, err := e.tasks.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if task == nil {
		t.Fatalf("task %s not in store", id.Hex())
	}
	return task
}

func (e *testEnv) storedProject(t *testing.T) *models.Project {
	t.Helper()
	project, err := e.projects.FindByID(context.Background(), e.project.ID)
	if err != nil {
		t.Fatalf("FindByID project: %v", err)
	}
	if project == nil {
		t.Fatalf("project not in store")
	}
	return project
}

func TestCreateTaskStartsProjectAndNotifiesAssignee(t *testing.T) {
	env := newTestEnv(t)

	task := env.createTask(t)

	if task.Status != models.StatusInitiated {
		t.Errorf("status = %s, want %s", task.Status, models.StatusInitiated)
	}
	if task.ProgressPercentage != 10 {
		t.Errorf("progress = %d, want 10", task.ProgressPercentage)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("priority = %s, want %s", task.Priority, models.PriorityMedium)
	}
	if task.PMRating != models.RatingPending || task.ClientRating != models.RatingPending {
		t.Errorf("ratings = %s/%s, want pending/pending", task.PMRating, task.ClientRating)
	}

	project := env.storedProject(t)
	if project.Status != models.ProjectInProgress {
		t.Errorf("project status = %s, want %s", project.Status, models.ProjectInProgress)
	}
	if project.StartDate == nil {
		t.Error("project start date not set")
	}
	if project.Progress != 0 {
		t.Errorf("project progress = %d, want 0", project.Progress)
	}

	if len(env.notifier.sent) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(env.notifier.sent))
	}
	if got := env.notifier.sent[0]; got.Recipient != env.member.ID || got.Kind != models.NotificationTaskAssigned {
		t.Errorf("notification = %+v, want assignment to member", got)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.CreateTask(context.Background(), CreateTaskInput{Title: "   ", ProjectID: env.project.ID}, env.pm)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("blank title: err = %v, want ErrValidation", err)
	}

	_, err = env.service.CreateTask(context.Background(), CreateTaskInput{Title: "Task", ProjectID: primitive.NewObjectID()}, env.pm)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown project: err = %v, want ErrNotFound", err)
	}

	otherPM := models.User{ID: primitive.NewObjectID(), Role: models.RoleProjectManager}
	_, err = env.service.CreateTask(context.Background(), CreateTaskInput{Title: "Task", ProjectID: env.project.ID}, otherPM)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign PM: err = %v, want ErrForbidden", err)
	}

	outsider := primitive.NewObjectID()
	_, err = env.service.CreateTask(context.Background(), CreateTaskInput{
		Title:      "Task",
		ProjectID:  env.project.ID,
		AssignedTo: &outsider,
	}, env.pm)
	if !errors.Is(err, ErrInvalidAssignee) {
		t.Errorf("outside assignee: err = %v, want ErrInvalidAssignee", err)
	}

	if all, _ := env.tasks.FindAll(context.Background()); len(all) != 0 {
		t.Errorf("tasks stored after rejected creates = %d, want 0", len(all))
	}
}

func TestCreateTaskNotificationFailureDoesNotFail(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.err = errors.New("cassandra down")

	task := env.createTask(t)
	if task == nil {
		t.Fatal("task not created despite notifier failure")
	}
}

func TestSubmitWorkMovesTaskToSubmitted(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	uploads := []FileUpload{
		{Data: []byte("pdf bytes"), OriginalName: "report.pdf", MimeType: "application/pdf"},
		{Data: []byte("png bytes"), OriginalName: "mockup.png", MimeType: "image/png"},
	}
	task := env.submitTask(t, created.ID, uploads)

	if task.Status != models.StatusSubmitted {
		t.Errorf("status = %s, want %s", task.Status, models.StatusSubmitted)
	}
	if task.ProgressPercentage != 30 {
		t.Errorf("progress = %d, want 30", task.ProgressPercentage)
	}
	if task.Submission == nil || len(task.Submission.Files) != 2 {
		t.Fatalf("submission files = %v, want 2", task.Submission)
	}
	if task.Submission.Work != "Initial draft attached" {
		t.Errorf("work = %q", task.Submission.Work)
	}
	if len(env.storage.uploads) != 2 {
		t.Errorf("storage uploads = %d, want 2", len(env.storage.uploads))
	}

	// PM and client are both told about the submission; the assignment
	// notification from create is the first entry.
	if len(env.notifier.sent) != 3 {
		t.Fatalf("notifications = %d, want 3", len(env.notifier.sent))
	}
	recipients := map[primitive.ObjectID]bool{}
	for _, n := range env.notifier.sent[1:] {
		if n.Kind != models.NotificationTaskSubmitted {
			t.Errorf("kind = %s, want %s", n.Kind, models.NotificationTaskSubmitted)
		}
		recipients[n.Recipient] = true
	}
	if !recipients[env.pm.ID] || !recipients[env.client.ID] {
		t.Errorf("submission recipients = %v, want PM and client", recipients)
	}
}

func TestSubmitWorkRequiresWorkDescription(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	_, err := env.service.SubmitWork(context.Background(), created.ID, "  ", nil, env.member)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if got := env.storedTask(t, created.ID); got.Status != models.StatusInitiated {
		t.Errorf("status mutated to %s on rejected submit", got.Status)
	}
}

func TestSubmitWorkForbiddenForUnrelatedUser(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	stranger := models.User{ID: primitive.NewObjectID(), Role: models.RoleTeamMember}
	_, err := env.service.SubmitWork(context.Background(), created.ID, "work", nil, stranger)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestResubmissionReplacesStoredFiles(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	first := env.submitTask(t, created.ID, []FileUpload{
		{Data: []byte("v1"), OriginalName: "draft.pdf", MimeType: "application/pdf"},
	})
	oldPublicID := first.Submission.Files[0].PublicID

	second := env.submitTask(t, created.ID, []FileUpload{
		{Data: []byte("v2"), OriginalName: "final.pdf", MimeType: "application/pdf"},
	})

	if env.storage.deletedCount(oldPublicID) != 1 {
		t.Errorf("old file %s not deleted from storage", oldPublicID)
	}
	if len(second.Submission.Files) != 1 || second.Submission.Files[0].OriginalName != "final.pdf" {
		t.Errorf("submission files = %+v, want only final.pdf", second.Submission.Files)
	}
}

func TestResubmissionSurvivesOldFileDeleteFailure(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	first := env.submitTask(t, created.ID, []FileUpload{
		{Data: []byte("v1"), OriginalName: "draft.pdf", MimeType: "application/pdf"},
	})
	env.storage.failDelete[first.Submission.Files[0].PublicID] = true

	second, err := env.service.SubmitWork(context.Background(), created.ID, "take two", []FileUpload{
		{Data: []byte("v2"), OriginalName: "final.pdf", MimeType: "application/pdf"},
	}, env.member)
	if err != nil {
		t.Fatalf("resubmit failed on best-effort cleanup: %v", err)
	}
	if second.Status != models.StatusSubmitted {
		t.Errorf("status = %s, want %s", second.Status, models.StatusSubmitted)
	}
}

func TestSubmitWorkRollsBackUploadsOnMidFailure(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	// First upload succeeds, then the provider goes down for the second.
	// The fake cannot fail per-call, so flip failUpload between calls via a
	// wrapper.
	firstOnly := &failSecondUpload{inner: env.storage}
	service := NewTaskService(env.tasks, env.projects, firstOnly, env.notifier, env.rollup)

	_, err := service.SubmitWork(context.Background(), created.ID, "work", []FileUpload{
		{Data: []byte("a"), OriginalName: "a.pdf", MimeType: "application/pdf"},
		{Data: []byte("b"), OriginalName: "b.pdf", MimeType: "application/pdf"},
	}, env.member)
	if err == nil {
		t.Fatal("expected upload failure to surface")
	}
	if len(env.storage.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(env.storage.uploads))
	}
	if env.storage.deletedCount(env.storage.uploads[0]) != 1 {
		t.Errorf("partial upload %s not rolled back", env.storage.uploads[0])
	}
	if got := env.storedTask(t, created.ID); got.Status != models.StatusInitiated {
		t.Errorf("status = %s after failed submit, want %s", got.Status, models.StatusInitiated)
	}
}

func TestPMReviewApproval(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)

	task, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "solid work", env.pm)
	if err != nil {
		t.Fatalf("ReviewTask: %v", err)
	}
	if task.Status != models.StatusPMReviewed {
		t.Errorf("status = %s, want %s", task.Status, models.StatusPMReviewed)
	}
	if task.ProgressPercentage != 60 {
		t.Errorf("progress = %d, want 60", task.ProgressPercentage)
	}
	if task.PMRating != models.RatingApproved || task.PMFeedback != "solid work" {
		t.Errorf("pm review = %s %q", task.PMRating, task.PMFeedback)
	}

	last := env.notifier.sent[len(env.notifier.sent)-1]
	if last.Recipient != env.member.ID || last.Kind != models.NotificationTaskReviewed {
		t.Errorf("review notification = %+v, want assignee", last)
	}
}

func TestPMReviewRejectionKeepsProgress(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)

	task, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingRejected, "needs rework", env.pm)
	if err != nil {
		t.Fatalf("ReviewTask: %v", err)
	}
	if task.Status != models.StatusRejected {
		t.Errorf("status = %s, want %s", task.Status, models.StatusRejected)
	}
	if task.ProgressPercentage != 30 {
		t.Errorf("progress = %d, want 30 (retained from submitted)", task.ProgressPercentage)
	}
}

func TestClientApprovalCompletesTask(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)
	if _, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "", env.pm); err != nil {
		t.Fatalf("PM review: %v", err)
	}

	task, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "great", env.client)
	if err != nil {
		t.Fatalf("client review: %v", err)
	}
	if task.Status != models.StatusCompleted {
		t.Errorf("status = %s, want %s", task.Status, models.StatusCompleted)
	}
	if task.ProgressPercentage != 100 {
		t.Errorf("progress = %d, want 100", task.ProgressPercentage)
	}
	if task.ClientRating != models.RatingApproved {
		t.Errorf("client rating = %s", task.ClientRating)
	}

	project := env.storedProject(t)
	if project.Progress != 100 {
		t.Errorf("project progress = %d, want 100", project.Progress)
	}
}

func TestClientRejectionAfterPMApproval(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)
	if _, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "", env.pm); err != nil {
		t.Fatalf("PM review: %v", err)
	}

	task, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingRejected, "not what we asked for", env.client)
	if err != nil {
		t.Fatalf("client review: %v", err)
	}
	if task.Status != models.StatusRejected {
		t.Errorf("status = %s, want %s", task.Status, models.StatusRejected)
	}
	if task.ProgressPercentage != 60 {
		t.Errorf("progress = %d, want 60 (retained from pm_reviewed)", task.ProgressPercentage)
	}
}

func TestClientCannotReviewBeforePMApproval(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)

	_, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "", env.client)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}

	stored := env.storedTask(t, created.ID)
	if stored.Status != models.StatusSubmitted {
		t.Errorf("status = %s, task was mutated by a rejected review", stored.Status)
	}
	if stored.ClientRating != models.RatingPending {
		t.Errorf("client rating = %s, want pending", stored.ClientRating)
	}
}

func TestPMCannotReviewInitiatedTask(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	_, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "", env.pm)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)

	_, err := env.service.ReviewTask(context.Background(), created.ID, models.Rating("maybe"), "", env.pm)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("bad rating: err = %v, want ErrValidation", err)
	}

	_, err = env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "", env.member)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("team member review: err = %v, want ErrForbidden", err)
	}
}

func TestAdminApprovalOnSubmittedCompletesBothStages(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)

	task, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "", env.admin)
	if err != nil {
		t.Fatalf("admin review: %v", err)
	}
	if task.Status != models.StatusCompleted {
		t.Errorf("status = %s, want %s (admin approval cascades)", task.Status, models.StatusCompleted)
	}
	if task.PMRating != models.RatingApproved || task.ClientRating != models.RatingApproved {
		t.Errorf("ratings = %s/%s, want approved/approved", task.PMRating, task.ClientRating)
	}
	if task.ProgressPercentage != 100 {
		t.Errorf("progress = %d, want 100", task.ProgressPercentage)
	}
}

func TestAdminRejectionStopsAtPMStage(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)

	task, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingRejected, "", env.admin)
	if err != nil {
		t.Fatalf("admin review: %v", err)
	}
	if task.Status != models.StatusRejected {
		t.Errorf("status = %s, want %s", task.Status, models.StatusRejected)
	}
	if task.ClientRating != models.RatingPending {
		t.Errorf("client rating = %s, want pending", task.ClientRating)
	}
}

func TestRejectedTaskCanBeResubmittedAndCompleted(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)
	if _, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingRejected, "rework", env.pm); err != nil {
		t.Fatalf("PM rejection: %v", err)
	}

	env.submitTask(t, created.ID, nil)
	if _, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "", env.pm); err != nil {
		t.Fatalf("PM re-review: %v", err)
	}
	task, err := env.service.ReviewTask(context.Background(), created.ID, models.RatingApproved, "", env.client)
	if err != nil {
		t.Fatalf("client review: %v", err)
	}
	if task.Status != models.StatusCompleted || task.ProgressPercentage != 100 {
		t.Errorf("task = %s/%d, want completed/100", task.Status, task.ProgressPercentage)
	}
}

func TestUpdateTaskEditableFieldsOnly(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	env.submitTask(t, created.ID, nil)

	title := "Design landing page v2"
	priority := models.PriorityHigh
	dueDate := time.Now().Add(72 * time.Hour)
	task, err := env.service.UpdateTask(context.Background(), created.ID, UpdateTaskInput{
		Title:    &title,
		Priority: &priority,
		DueDate:  &dueDate,
	}, env.pm)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if task.Title != title || task.Priority != models.PriorityHigh {
		t.Errorf("task = %q/%s", task.Title, task.Priority)
	}
	if task.Status != models.StatusSubmitted || task.ProgressPercentage != 30 {
		t.Errorf("lifecycle fields changed: %s/%d", task.Status, task.ProgressPercentage)
	}

	outsider := primitive.NewObjectID()
	_, err = env.service.UpdateTask(context.Background(), created.ID, UpdateTaskInput{AssignedTo: &outsider}, env.pm)
	if !errors.Is(err, ErrInvalidAssignee) {
		t.Errorf("outside assignee: err = %v, want ErrInvalidAssignee", err)
	}

	_, err = env.service.UpdateTask(context.Background(), created.ID, UpdateTaskInput{Title: &title}, env.member)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("member update: err = %v, want ErrForbidden", err)
	}
}

func TestDeleteTaskCleansStorageAndRecomputesProgress(t *testing.T) {
	env := newTestEnv(t)
	first := env.createTask(t)

	assignee := env.member.ID
	second, err := env.service.CreateTask(context.Background(), CreateTaskInput{
		Title:      "Write copy",
		ProjectID:  env.project.ID,
		AssignedTo: &assignee,
	}, env.pm)
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	env.submitTask(t, second.ID, nil)
	if _, err := env.service.ReviewTask(context.Background(), second.ID, models.RatingApproved, "", env.admin); err != nil {
		t.Fatalf("complete second task: %v", err)
	}

	submitted := env.submitTask(t, first.ID, []FileUpload{
		{Data: []byte("x"), OriginalName: "notes.txt", MimeType: "text/plain"},
	})
	env.storage.failDelete[submitted.Submission.Files[0].PublicID] = true

	if err := env.service.DeleteTask(context.Background(), first.ID, env.pm); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	if got, _ := env.tasks.FindByID(context.Background(), first.ID); got != nil {
		t.Error("task still in store after delete")
	}
	// One task remains and it is completed, so the rollup lands on 100.
	if project := env.storedProject(t); project.Progress != 100 {
		t.Errorf("project progress = %d, want 100", project.Progress)
	}
}

func TestDeleteTaskForbiddenForMember(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	err := env.service.DeleteTask(context.Background(), created.ID, env.member)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestDeleteSubmissionFilesReportsPartialFailure(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)
	submitted := env.submitTask(t, created.ID, []FileUpload{
		{Data: []byte("a"), OriginalName: "keep-failing.pdf", MimeType: "application/pdf"},
		{Data: []byte("b"), OriginalName: "fine.pdf", MimeType: "application/pdf"},
	})
	env.storage.failDelete[submitted.Submission.Files[0].PublicID] = true

	report, err := env.service.DeleteSubmissionFiles(context.Background(), created.ID, env.member)
	if err != nil {
		t.Fatalf("DeleteSubmissionFiles: %v", err)
	}
	if len(report.Successful) != 1 || report.Successful[0] != "fine.pdf" {
		t.Errorf("successful = %v", report.Successful)
	}
	if len(report.Failed) != 1 || report.Failed[0].Name != "keep-failing.pdf" {
		t.Errorf("failed = %v", report.Failed)
	}

	stored := env.storedTask(t, created.ID)
	if stored.HasSubmissionFiles() {
		t.Error("submission file list not cleared")
	}
}

func TestDeleteSubmissionFilesGuards(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	_, err := env.service.DeleteSubmissionFiles(context.Background(), created.ID, env.member)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("no files: err = %v, want ErrNotFound", err)
	}

	env.submitTask(t, created.ID, []FileUpload{
		{Data: []byte("a"), OriginalName: "a.pdf", MimeType: "application/pdf"},
	})
	_, err = env.service.DeleteSubmissionFiles(context.Background(), created.ID, env.client)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("client: err = %v, want ErrForbidden", err)
	}
}

func TestGetTaskAccess(t *testing.T) {
	env := newTestEnv(t)
	created := env.createTask(t)

	for _, actor := range []models.User{env.admin, env.pm, env.member, env.client} {
		if _, err := env.service.GetTask(context.Background(), created.ID, actor); err != nil {
			t.Errorf("GetTask as %s: %v", actor.Role, err)
		}
	}

	stranger := models.User{ID: primitive.NewObjectID(), Role: models.RoleTeamMember}
	if _, err := env.service.GetTask(context.Background(), created.ID, stranger); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger: err = %v, want ErrForbidden", err)
	}
}

func TestListTasksByRole(t *testing.T) {
	env := newTestEnv(t)
	env.createTask(t)

	// A second project with its own task, invisible to this project's crew.
	otherPM := models.User{ID: primitive.NewObjectID(), Role: models.RoleProjectManager}
	otherProject := &models.Project{
		ID:             primitive.NewObjectID(),
		Title:          "Mobile App",
		ProjectManager: otherPM.ID,
		Status:         models.ProjectInProgress,
	}
	if err := env.projects.Save(context.Background(), otherProject); err != nil {
		t.Fatalf("seeding project: %v", err)
	}
	if _, err := env.service.CreateTask(context.Background(), CreateTaskInput{
		Title:     "Ship beta",
		ProjectID: otherProject.ID,
	}, otherPM); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	cases := []struct {
		name  string
		actor models.User
		want  int
	}{
		{"admin sees all", env.admin, 2},
		{"pm sees own projects", env.pm, 1},
		{"member sees assignments", env.member, 1},
		{"client sees own projects", env.client, 1},
		{"other pm sees own project", otherPM, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tasks, err := env.service.ListTasks(context.Background(), tc.actor, nil)
			if err != nil {
				t.Fatalf("ListTasks: %v", err)
			}
			if len(tasks) != tc.want {
				t.Errorf("tasks = %d, want %d", len(tasks), tc.want)
			}
		})
	}

	scoped, err := env.service.ListTasks(context.Background(), env.admin, &otherProject.ID)
	if err != nil {
		t.Fatalf("ListTasks scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Project != otherProject.ID {
		t.Errorf("scoped admin list = %d tasks", len(scoped))
	}
}

// failSecondUpload passes the first upload through and fails every one
// after it.
type failSecondUpload struct {
	inner *fakeStorage
	calls int
}

func (f *failSecondUpload) Upload(ctx context.Context, data []byte, originalName, mimeType string) (*storage.UploadResult, error) {
	f.calls++
	if f.calls > 1 {
		return nil, errors.New("storage unavailable")
	}
	return f.inner.Upload(ctx, data, originalName, mimeType)
}

func (f *failSecondUpload) Delete(ctx context.Context, publicID string) error {
	return f.inner.Delete(ctx, publicID)
}
