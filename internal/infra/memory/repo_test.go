package memory

import (
	"testing"

	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

func TestUserRepoKeepsFirstSeenOrder(t *testing.T) {
	r := NewUserRepo()
	for _, id := range []int64{3, 1, 3, 2} {
		_ = r.SaveUser(id)
	}
	ids, _ := r.ListChatIDs()
	want := []int64{3, 1, 2}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v", ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestFunnelRepoUniquePerStep(t *testing.T) {
	r := NewFunnelRepo()
	_ = r.Hit(usecase.StepLocation, "a")
	_ = r.Hit(usecase.StepLocation, "a")
	_ = r.Hit(usecase.StepLocation, "b")
	_ = r.Hit(usecase.StepComplete, "a")
	c := r.Counts()
	if c[usecase.StepLocation] != 2 || c[usecase.StepComplete] != 1 {
		t.Fatalf("counts = %v", c)
	}
}

func TestFunnelRepoKeys(t *testing.T) {
	r := NewFunnelRepo()
	_ = r.Hit(usecase.StepComplete, "web:b")
	_ = r.Hit(usecase.StepComplete, "tg:1")
	_ = r.Hit(usecase.StepComplete, "tg:1")
	keys, err := r.Keys(usecase.StepComplete)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "tg:1" || keys[1] != "web:b" {
		t.Fatalf("keys = %v", keys)
	}
	if none, _ := r.Keys(usecase.StepFinal); len(none) != 0 {
		t.Fatalf("final keys = %v", none)
	}
}

func TestAnnounceReportRepoKeepsNewest(t *testing.T) {
	r := NewAnnounceReportRepo()
	if got, _ := r.ListRecent(0); len(got) != 0 {
		t.Fatalf("empty repo returned %d reports", len(got))
	}
	for i := 0; i < defaultReportCap+5; i++ {
		_ = r.Save(usecase.AnnounceReport{Total: i})
	}
	all, _ := r.ListRecent(0)
	if len(all) != defaultReportCap {
		t.Fatalf("kept %d reports, want %d", len(all), defaultReportCap)
	}
	if all[0].Total != defaultReportCap+4 || all[len(all)-1].Total != 5 {
		t.Fatalf("order broken: newest=%d oldest=%d", all[0].Total, all[len(all)-1].Total)
	}
	if all[0].CreatedAt.IsZero() {
		t.Fatalf("created_at not stamped")
	}
	two, _ := r.ListRecent(2)
	if len(two) != 2 || two[1].Total != defaultReportCap+3 {
		t.Fatalf("ListRecent(2) = %+v", two)
	}
}
