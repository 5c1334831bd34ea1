package glsa

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/portscope/portscope/internal/common/run"
	"github.com/portscope/portscope/internal/eix"
	"github.com/portscope/portscope/internal/state"
)

const sampleAdvisoryXML = `<?xml version="1.0" encoding="UTF-8"?>
<glsa id="202608-01">
  <title>OpenSSL: Multiple Vulnerabilities</title>
  <synopsis>Multiple vulnerabilities have been discovered in OpenSSL.</synopsis>
  <product type="ebuild">openssl</product>
  <announced>2026-08-03</announced>
  <revised count="2">2026-08-10</revised>
  <bug>956789</bug>
  <bug>956790</bug>
  <access>remote</access>
  <affected>
    <package name="dev-libs/openssl" auto="yes" arch="*">
      <unaffected range="ge">3.3.2</unaffected>
      <vulnerable range="lt">3.3.2</vulnerable>
    </package>
  </affected>
  <background>
    <p>OpenSSL is a robust toolkit for TLS.</p>
  </background>
  <description>
    <p>Multiple vulnerabilities have been discovered. Review the CVEs.</p>
  </description>
  <impact type="high">
    <p>A remote attacker could cause a denial of service.</p>
  </impact>
  <workaround>
    <p>There is no known workaround at this time.</p>
  </workaround>
  <resolution>
    <p>All OpenSSL users should upgrade to the latest version:</p>
    <code>
      # emerge --sync
      # emerge --ask --oneshot --verbose ">=dev-libs/openssl-3.3.2"
    </code>
  </resolution>
  <references>
    <uri link="https://nvd.nist.gov/vuln/detail/CVE-2026-12345">CVE-2026-12345</uri>
    <uri>CVE-2026-12346</uri>
  </references>
</glsa>
`

func TestParseAdvisory(t *testing.T) {
	adv, err := parseAdvisory("202608-01", sampleAdvisoryXML)
	if err != nil {
		t.Fatalf("parseAdvisory() error = %v", err)
	}

	if adv.Title != "OpenSSL: Multiple Vulnerabilities" {
		t.Errorf("Title = %q", adv.Title)
	}
	if adv.ImpactType != "high" {
		t.Errorf("ImpactType = %q", adv.ImpactType)
	}
	if adv.RevisionCount != "2" {
		t.Errorf("RevisionCount = %q", adv.RevisionCount)
	}
	if len(adv.Bugs) != 2 || adv.Bugs[0] != "956789" {
		t.Errorf("Bugs = %v", adv.Bugs)
	}
	if adv.Impact != "A remote attacker could cause a denial of service." {
		t.Errorf("Impact = %q", adv.Impact)
	}

	if len(adv.Affected) != 1 {
		t.Fatalf("Affected = %+v", adv.Affected)
	}
	pkg := adv.Affected[0]
	if pkg.Name != "dev-libs/openssl" {
		t.Errorf("affected name = %q", pkg.Name)
	}
	if len(pkg.Vulnerable) != 1 || pkg.Vulnerable[0].Range != "lt" || pkg.Vulnerable[0].Value != "3.3.2" {
		t.Errorf("Vulnerable = %+v", pkg.Vulnerable)
	}
	if len(pkg.Unaffected) != 1 || pkg.Unaffected[0].Range != "ge" {
		t.Errorf("Unaffected = %+v", pkg.Unaffected)
	}

	if len(adv.Resolutions) != 1 {
		t.Fatalf("Resolutions = %+v", adv.Resolutions)
	}
	res := adv.Resolutions[0]
	if !strings.HasPrefix(res.Text, "All OpenSSL users") {
		t.Errorf("resolution text = %q", res.Text)
	}
	if !strings.HasPrefix(res.Code, "# emerge --sync") {
		t.Errorf("resolution code not dedented: %q", res.Code)
	}

	if len(adv.References) != 2 {
		t.Fatalf("References = %v", adv.References)
	}
	if adv.References[0] != "https://nvd.nist.gov/vuln/detail/CVE-2026-12345" {
		t.Errorf("link reference = %q", adv.References[0])
	}
	if adv.References[1] != "CVE-2026-12346" {
		t.Errorf("text reference = %q", adv.References[1])
	}
}

func TestParseAdvisoryDefaults(t *testing.T) {
	adv, err := parseAdvisory("200310-03", `<glsa id="200310-03"><title>t</title><impact><p>i</p></impact></glsa>`)
	if err != nil {
		t.Fatalf("parseAdvisory() error = %v", err)
	}
	if adv.ImpactType != "normal" {
		t.Errorf("default ImpactType = %q, want normal", adv.ImpactType)
	}
}

type fixture struct {
	tracker *Tracker
	runner  *run.MockRunner
	state   *state.Store
	repo    string
}

func newFixture(t *testing.T, checkExit int, checkOut string) *fixture {
	t.Helper()

	repo := t.TempDir()
	runner := &run.MockRunner{
		RunFunc: func(ctx context.Context, req run.Request) (run.Result, error) {
			key := strings.Join(req.Argv, " ")
			switch {
			case key == "glsa-check -tqn all":
				res := run.Result{ExitCode: checkExit, Stdout: checkOut}
				if checkExit != 0 {
					return res, &run.ExitError{Argv: req.Argv, ExitCode: checkExit}
				}
				return res, nil
			case key == "portageq get_repo_path / gentoo":
				return run.Result{Stdout: repo + "\n"}, nil
			default:
				return run.Result{}, nil
			}
		},
	}

	stateStore, err := state.Load(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("state.Load() error = %v", err)
	}

	return &fixture{
		tracker: NewTracker(runner, stateStore, eix.NewClient(runner, nil, 3)),
		runner:  runner,
		state:   stateStore,
		repo:    repo,
	}
}

func (f *fixture) writeAdvisory(t *testing.T, id, xml string) {
	t.Helper()
	dir := filepath.Join(f.repo, "metadata", "glsa")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "glsa-"+id+".xml"), []byte(xml), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestAffectedIDsCleanSystem(t *testing.T) {
	f := newFixture(t, 0, "")

	ids, err := f.tracker.AffectedIDs(context.Background())
	if err != nil {
		t.Fatalf("AffectedIDs() error = %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want none", ids)
	}
}

func TestAffectedIDsExitSixMeansAffected(t *testing.T) {
	f := newFixture(t, 6, "202608-01 202608-02\n")

	ids, err := f.tracker.AffectedIDs(context.Background())
	if err != nil {
		t.Fatalf("AffectedIDs() error = %v", err)
	}
	if len(ids) != 2 || ids[0] != "202608-01" {
		t.Errorf("ids = %v", ids)
	}
}

func TestListJoinsReadState(t *testing.T) {
	f := newFixture(t, 6, "202608-01\n")
	f.writeAdvisory(t, "202608-01", sampleAdvisoryXML)

	advisories, err := f.tracker.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(advisories) != 1 {
		t.Fatalf("advisories = %d, want 1", len(advisories))
	}
	if advisories[0].Read {
		t.Error("unmarked advisory reported read")
	}

	if err := f.tracker.MarkRead("202608-01"); err != nil {
		t.Fatal(err)
	}
	advisories, _ = f.tracker.List(context.Background())
	if !advisories[0].Read {
		t.Error("marked advisory reported unread")
	}
}

func TestListSkipsMissingDocuments(t *testing.T) {
	f := newFixture(t, 6, "202608-01 202608-99\n")
	f.writeAdvisory(t, "202608-01", sampleAdvisoryXML)

	advisories, err := f.tracker.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(advisories) != 1 || advisories[0].ID != "202608-01" {
		t.Errorf("advisories = %+v", advisories)
	}
}

func TestFixAllCleanSystemSpawnsNothing(t *testing.T) {
	f := newFixture(t, 0, "")

	if err := f.tracker.FixAll(context.Background()); err != nil {
		t.Fatalf("FixAll() error = %v", err)
	}
	for _, req := range f.runner.Calls() {
		if req.Argv[0] == "glsa-check" && req.Elevated {
			t.Errorf("fix ran on a clean system: %v", req.Argv)
		}
	}
}

func TestFixAllAppliesAffectedIDsElevated(t *testing.T) {
	f := newFixture(t, 6, "202608-01 202608-02\n")

	if err := f.tracker.FixAll(context.Background()); err != nil {
		t.Fatalf("FixAll() error = %v", err)
	}

	var fixed bool
	for _, req := range f.runner.Calls() {
		if strings.HasPrefix(strings.Join(req.Argv, " "), "glsa-check -f") {
			fixed = true
			if !req.Elevated {
				t.Error("fix not requested elevated")
			}
			if got := strings.Join(req.Argv, " "); got != "glsa-check -f 202608-01 202608-02" {
				t.Errorf("fix argv = %q", got)
			}
		}
	}
	if !fixed {
		t.Error("no fix command recorded")
	}
}
