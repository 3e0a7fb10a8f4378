package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docdrift/docdrift/pkg/parser"
)

func extractSource(t *testing.T, path, source string) *FileResult {
	t.Helper()

	psr := parser.New()
	defer psr.Close()

	parsed, err := psr.Parse([]byte(source), parser.LangPython, path)
	require.NoError(t, err)

	result, err := ExtractFile(parsed)
	require.NoError(t, err)
	return result
}

func TestExtractFileIdentities(t *testing.T) {
	source := `
def fetch(url):
    return url

def _helper():
    pass

class Client:
    def request(self, path):
        return path

    class Retry:
        def backoff(self):
            pass

def outer():
    def inner():
        pass
    inner()
`
	result := extractSource(t, "pkg\\client.py", source)

	wantKeys := []string{
		"pkg/client.py::fetch",
		"pkg/client.py::_helper",
		"pkg/client.py::Client.request",
		"pkg/client.py::Client.Retry.backoff",
		"pkg/client.py::outer",
		"pkg/client.py::inner",
	}
	for _, key := range wantKeys {
		if _, ok := result.Functions[key]; !ok {
			t.Errorf("missing function %s", key)
		}
	}
	if len(result.Functions) != len(wantKeys) {
		t.Errorf("expected %d functions, got %d", len(wantKeys), len(result.Functions))
	}

	if !result.Functions["pkg/client.py::fetch"].Public {
		t.Error("fetch should be public")
	}
	if result.Functions["pkg/client.py::_helper"].Public {
		t.Error("_helper should be private")
	}
}

func TestCosmeticChangesKeepDigests(t *testing.T) {
	base := `
def area(w, h):
    """Compute the area."""
    if w > 10:
        return w * h
    return 0
`
	tests := []struct {
		name   string
		source string
	}{
		{
			name: "docstring edited",
			source: `
def area(w, h):
    """Compute the rectangle area in square units."""
    if w > 10:
        return w * h
    return 0
`,
		},
		{
			name: "comments and whitespace",
			source: `
def area(w, h):
    """Compute the area."""
    # guard against tiny widths

    if w > 10:
        return w  *  h
    return 0
`,
		},
		{
			name: "literal formatting",
			source: `
def area(w, h):
    """Compute the area."""
    if w > 0xA:
        return w * h
    return 0
`,
		},
	}

	want := extractSource(t, "geo.py", base).Functions["geo.py::area"]
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractSource(t, "geo.py", tt.source).Functions["geo.py::area"]
			if got.Digests.Aggregate != want.Digests.Aggregate {
				t.Errorf("aggregate digest changed for cosmetic edit")
			}
		})
	}
}

func TestReorderingFunctionsKeepsDigests(t *testing.T) {
	forward := `
def first():
    return 1

def second():
    return 2
`
	reversed := `
def second():
    return 2

def first():
    return 1
`
	a := extractSource(t, "mod.py", forward)
	b := extractSource(t, "mod.py", reversed)

	for key, fp := range a.Functions {
		other, ok := b.Functions[key]
		if !ok {
			t.Fatalf("missing %s after reorder", key)
		}
		if fp.Digests.Aggregate != other.Digests.Aggregate {
			t.Errorf("%s digest changed after reorder", key)
		}
	}
}

func TestDefaultsOnlyChange(t *testing.T) {
	before := extractSource(t, "m.py", `
def connect(host, timeout=30):
    return host
`).Functions["m.py::connect"]
	after := extractSource(t, "m.py", `
def connect(host, timeout=60):
    return host
`).Functions["m.py::connect"]

	if before.Digests.Signature == after.Digests.Signature {
		t.Error("signature digest should change when a default value changes")
	}
	if before.Digests.SignatureCore != after.Digests.SignatureCore {
		t.Error("signature core should not change when only a default value changes")
	}
}

func TestSignatureShapeChange(t *testing.T) {
	before := extractSource(t, "m.py", `
def connect(host):
    return host
`).Functions["m.py::connect"]
	after := extractSource(t, "m.py", `
def connect(host, port):
    return host
`).Functions["m.py::connect"]

	if before.Digests.SignatureCore == after.Digests.SignatureCore {
		t.Error("signature core should change when a parameter is added")
	}
}

func TestConditionLiteralVsStructure(t *testing.T) {
	base := extractSource(t, "m.py", `
def check(n):
    if n > 10:
        return True
    return False
`).Functions["m.py::check"]

	literal := extractSource(t, "m.py", `
def check(n):
    if n > 25:
        return True
    return False
`).Functions["m.py::check"]

	structural := extractSource(t, "m.py", `
def check(n):
    if n >= limit:
        return True
    return False
`).Functions["m.py::check"]

	if base.Digests.Conditions == literal.Digests.Conditions {
		t.Error("conditions digest should change when a literal changes")
	}
	if base.Digests.ConditionCore != literal.Digests.ConditionCore {
		t.Error("condition core should survive a literal-only tweak")
	}
	if base.Digests.ConditionCore == structural.Digests.ConditionCore {
		t.Error("condition core should change for a structural edit")
	}
}

func TestCallsView(t *testing.T) {
	result := extractSource(t, "m.py", `
def process(items):
    cleaned = normalize(items)
    db.session.commit()
    return serialize(cleaned)
`)
	calls := result.Functions["m.py::process"].Views.Calls.Names

	want := []string{"db.session.commit", "normalize", "serialize"}
	require.Equal(t, want, calls)
}

func TestSideEffectsClassification(t *testing.T) {
	result := extractSource(t, "m.py", `
def sync(user):
    global counter
    cursor.execute(query)
    requests.get(url)
    authenticate(user)
    open(path).read()
`)
	effects := result.Functions["m.py::sync"].Views.SideEffects

	if len(effects.DB) == 0 {
		t.Error("expected a db side effect from cursor.execute")
	}
	if len(effects.Network) == 0 {
		t.Error("expected a network side effect from requests.get")
	}
	if len(effects.Auth) == 0 {
		t.Error("expected an auth side effect from authenticate")
	}
	if len(effects.File) == 0 {
		t.Error("expected a file side effect from open")
	}
	if len(effects.Mutation) == 0 {
		t.Error("expected a mutation from the global statement")
	}
}

func TestAuthCallsClassified(t *testing.T) {
	source := `
def login(user):
    if user is None:
        raise ValueError("missing user")
    check_auth(user)
    return user
`
	effects := extractSource(t, "auth.py", source).Functions["auth.py::login"].Views.SideEffects
	require.Equal(t, []string{"check_auth"}, effects.Auth)

	more := extractSource(t, "auth.py", `
def guard(session):
    session.verify_auth()
    has_perm(session.user, "read")
`).Functions["auth.py::guard"].Views.SideEffects
	require.Equal(t, []string{"has_perm", "session.verify_auth"}, more.Auth)
}

func TestExceptionsView(t *testing.T) {
	result := extractSource(t, "m.py", `
def load(path):
    try:
        parse(path)
    except (ValueError, KeyError) as e:
        raise ConfigError(str(e))
    except:
        raise
`)
	exc := result.Functions["m.py::load"].Views.Exceptions

	require.Equal(t, []string{"ConfigError", "re-raise"}, exc.Raises)
	require.Equal(t, []string{"KeyError", "ValueError"}, exc.Handles)
	if !exc.BareHandler {
		t.Error("expected bare handler flag")
	}
}

func TestReturnShapes(t *testing.T) {
	result := extractSource(t, "m.py", `
def pick(flag, items):
    if flag:
        return None
    if not items:
        return 0
    if len(items) == 1:
        return items
    return build(items)
`)
	shapes := result.Functions["m.py::pick"].Views.Returns.Shapes
	require.Equal(t, []string{"call", "literal", "name", "none"}, shapes)
}

func TestControlFlowSkeleton(t *testing.T) {
	result := extractSource(t, "m.py", `
def route(req):
    if req.method == "GET":
        for item in req.items:
            handle(item)
    else:
        return None
    return True
`)
	flow := result.Functions["m.py::route"].Views.ControlFlow

	if flow.Skeleton != "if(for,else)" {
		t.Errorf("skeleton = %q, want if(for,else)", flow.Skeleton)
	}
	if flow.If != 1 || flow.For != 1 || flow.Else != 1 || flow.Returns != 2 {
		t.Errorf("unexpected counts: %+v", flow)
	}
}

func TestBranchCategories(t *testing.T) {
	views := extractSource(t, "m.py", `
def run(jobs):
    for job in jobs:
        if job.ready:
            start(job)
    while pending():
        wait()
`).Functions["m.py::run"].Views

	cats := BranchCategories(views.ControlFlow)
	require.Equal(t, []string{"for", "while"}, cats)
}

func TestParseErrorSkipsFile(t *testing.T) {
	psr := parser.New()
	defer psr.Close()

	parsed, err := psr.Parse([]byte("def broken(:\n    pass\n"), parser.LangPython, "bad.py")
	require.NoError(t, err)

	_, err = ExtractFile(parsed)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "bad.py", parseErr.Path)
}

func TestDuplicateDefinitionLastWins(t *testing.T) {
	result := extractSource(t, "m.py", `
def handler():
    return 1

def handler():
    return compute()
`)

	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "m.py::handler") {
		t.Fatalf("expected one duplicate warning, got %v", result.Warnings)
	}
	shapes := result.Functions["m.py::handler"].Views.Returns.Shapes
	require.Equal(t, []string{"call"}, shapes)
}

func TestSourceHashStable(t *testing.T) {
	a := SourceHash([]byte("def f():\n    pass\n"))
	b := SourceHash([]byte("def f():\n    pass\n"))
	c := SourceHash([]byte("def f():\n    return 1\n"))

	if a != b {
		t.Error("identical sources must hash equal")
	}
	if a == c {
		t.Error("different sources must hash different")
	}
}
