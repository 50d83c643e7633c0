package status

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ldf/internal/spec"
)

const (
	approvedReq = "# Requirements\n\n**Status:** Approved\n\n### US-1: Login\n- [ ] AC-1.1: Works\n"
	draftReq    = "# Requirements\n\n**Status:** Draft\n"
	approvedDes = "# Design\n\n- [x] Design approved\n"
	draftDes    = "# Design\n"
)

func tasksDoc(status, first, second string) string {
	return "# Tasks\n\nStatus: " + status + "\n\n" +
		"### Task 1.1: One\n- [" + first + "] a\n\n" +
		"### Task 1.2: Two\n- [" + second + "] b\n"
}

func writeSpec(t *testing.T, dir, name string, docs map[spec.DocType]string) {
	t.Helper()
	specDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(specDir, 0o755))
	for doc, text := range docs {
		require.NoError(t, os.WriteFile(filepath.Join(specDir, doc.FileName()), []byte(text), 0o644))
	}
}

func TestDetermine_Lifecycle(t *testing.T) {
	tests := []struct {
		name string
		docs map[spec.DocType]string
		want Stage
	}{
		{"empty", map[spec.DocType]string{}, NotStarted},
		{"requirements draft", map[spec.DocType]string{spec.DocRequirements: draftReq}, RequirementsDraft},
		{"requirements approved", map[spec.DocType]string{spec.DocRequirements: approvedReq}, RequirementsApproved},
		{"design draft", map[spec.DocType]string{
			spec.DocRequirements: approvedReq, spec.DocDesign: draftDes}, DesignDraft},
		{"design approved", map[spec.DocType]string{
			spec.DocRequirements: approvedReq, spec.DocDesign: approvedDes}, DesignApproved},
		{"tasks draft", map[spec.DocType]string{
			spec.DocRequirements: approvedReq, spec.DocDesign: approvedDes, spec.DocTasks: tasksDoc("Draft", " ", " ")}, TasksDraft},
		{"tasks approved", map[spec.DocType]string{
			spec.DocRequirements: approvedReq, spec.DocDesign: approvedDes, spec.DocTasks: tasksDoc("Approved", " ", " ")}, TasksApproved},
		{"in progress", map[spec.DocType]string{
			spec.DocRequirements: approvedReq, spec.DocDesign: approvedDes, spec.DocTasks: tasksDoc("Approved", "x", " ")}, InProgress},
		{"complete", map[spec.DocType]string{
			spec.DocRequirements: approvedReq, spec.DocDesign: approvedDes, spec.DocTasks: tasksDoc("Approved", "x", "x")}, Complete},
		{"design without approved requirements", map[spec.DocType]string{
			spec.DocRequirements: draftReq, spec.DocDesign: approvedDes}, RequirementsDraft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := FromSource(spec.Source{Name: "s", Docs: tt.docs})
			require.NoError(t, err)
			assert.Equal(t, tt.want, st.Stage)
			assert.Equal(t, tt.want.Next(), st.Next)
		})
	}
}

func TestDetermine_Counts(t *testing.T) {
	st, err := FromSource(spec.Source{Name: "s", Docs: map[spec.DocType]string{
		spec.DocRequirements: approvedReq,
		spec.DocTasks:        tasksDoc("Approved", "x", " "),
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, st.Stories)
	assert.Equal(t, TaskCounts{Total: 2, Complete: 1, Pending: 1}, st.Tasks)
	require.Len(t, st.Docs, 3)
	assert.True(t, st.Docs[0].Approved)
	assert.Equal(t, "Approved", st.Docs[0].Status)
	assert.False(t, st.Docs[1].Present)
}

func TestStage_Order(t *testing.T) {
	assert.Less(t, RequirementsDraft.Index(), DesignDraft.Index())
	assert.Equal(t, len(Stages)-1, Complete.Index())
	assert.Equal(t, -1, Stage("bogus").Index())
	assert.Empty(t, Complete.Next())
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "beta", map[spec.DocType]string{spec.DocRequirements: draftReq})
	writeSpec(t, dir, "alpha", map[spec.DocType]string{spec.DocRequirements: approvedReq})

	all, err := List(dir)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, RequirementsApproved, all[0].Stage)
	assert.Equal(t, RequirementsDraft, all[1].Stage)

	none, err := List(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGet_NotFound(t *testing.T) {
	_, err := Get(t.TempDir(), "nope")
	assert.ErrorIs(t, err, spec.ErrSpecNotFound)
}
