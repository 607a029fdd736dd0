package manifest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(DefaultOptions(), zerolog.Nop())
	require.NoError(t, err)
	return n
}

// shape renders the structure of a node tree: kinds, mapping keys and
// sequence lengths, without scalar values.
func shape(node *yaml.Node) string {
	var b strings.Builder
	var walk func(n *yaml.Node, depth int)
	walk = func(n *yaml.Node, depth int) {
		pad := strings.Repeat(" ", depth)
		switch n.Kind {
		case yaml.DocumentNode:
			for _, c := range n.Content {
				walk(c, depth)
			}
		case yaml.MappingNode:
			fmt.Fprintf(&b, "%smap(%d)\n", pad, len(n.Content)/2)
			for i := 0; i+1 < len(n.Content); i += 2 {
				fmt.Fprintf(&b, "%s key %s\n", pad, n.Content[i].Value)
				walk(n.Content[i+1], depth+2)
			}
		case yaml.SequenceNode:
			fmt.Fprintf(&b, "%sseq(%d)\n", pad, len(n.Content))
			for _, c := range n.Content {
				walk(c, depth+2)
			}
		case yaml.ScalarNode:
			fmt.Fprintf(&b, "%sscalar %s\n", pad, n.ShortTag())
		case yaml.AliasNode:
			fmt.Fprintf(&b, "%salias\n", pad)
		}
	}
	walk(node, 0)
	return b.String()
}

const bigBearManifest = `name: big-bear-wiki
cosmos-installer:
  steps: [one, two]
services:
  big-bear-wiki:
    image: requarks/wiki:2
    container_name: "{ServiceName}"
    ports:
      - "3000:3000"
    volumes:
      - /DATA/AppData/{ServiceName}/data:/data
      - type: bind
        source: /DATA/{ServiceName}
        target: /config
    environment:
      HOSTNAME: "{ServiceName}.local"
      REPLICAS: 2
      DEBUG: false
    labels:
      nested:
        deeper:
          - key: "{ServiceName}-a"
            n: 7
`

func TestNormalize_BigBearManifest(t *testing.T) {
	n := newTestNormalizer(t)

	out, res, err := n.NormalizeBytes([]byte(bigBearManifest), "wiki")
	require.NoError(t, err)

	want := `name: wiki
services:
  wiki:
    image: requarks/wiki:2
    container_name: "wiki"
    ports:
      - "3000:3000"
    volumes:
      - /DATA/AppData/wiki/data:/data
      - type: bind
        source: /DATA/wiki
        target: /config
    environment:
      HOSTNAME: "wiki.local"
      REPLICAS: 2
      DEBUG: false
    labels:
      nested:
        deeper:
          - key: "wiki-a"
            n: 7
`
	assert.Equal(t, want, string(out))
	assert.Equal(t, []string{"cosmos-installer"}, res.RemovedKeys)
	assert.True(t, res.NameStripped)
	assert.Equal(t, "wiki", res.ContainerName)
	assert.Equal(t, 1, res.Services)
	assert.Equal(t, 5, res.Substitutions)
}

func TestNormalize_ContainerNameResolution(t *testing.T) {
	tests := []struct {
		name string
		svc  string
		want string
	}{
		{name: "absent", svc: "image: x\n", want: "wiki"},
		{name: "bare placeholder", svc: "container_name: \"{ServiceName}\"\n", want: "wiki"},
		{name: "empty", svc: "container_name: \"\"\n", want: "wiki"},
		{name: "templated", svc: "container_name: \"{ServiceName}-server\"\n", want: "wiki-server"},
		{name: "explicit", svc: "container_name: wikijs\n", want: "wikijs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNormalizer(t)
			src := "services:\n  app:\n" + indent(tt.svc, "    ") + "    hostname: \"{ServiceName}\"\n"

			doc, err := Decode([]byte(src))
			require.NoError(t, err)
			res, err := n.Normalize(doc, "wiki")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.ContainerName)

			services, _ := mappingValue(root(doc), "services")
			require.Len(t, services.Content, 2)
			assert.Equal(t, "wiki", services.Content[0].Value)
			hostname, _ := mappingValue(services.Content[1], "hostname")
			assert.Equal(t, tt.want, hostname.Value)
		})
	}
}

func TestNormalize_WithoutServicesOnlyCleansTopLevel(t *testing.T) {
	n := newTestNormalizer(t)
	src := "name: big-bear-thing\ncosmos-installer: {}\nvolumes:\n  data: \"{ServiceName}\"\n"

	out, res, err := n.NormalizeBytes([]byte(src), "thing")
	require.NoError(t, err)
	assert.Equal(t, "name: thing\nvolumes:\n  data: \"{ServiceName}\"\n", string(out))
	assert.Zero(t, res.Services)
	assert.Empty(t, res.ContainerName)
}

func TestNormalize_NonMappingDocuments(t *testing.T) {
	n := newTestNormalizer(t)
	for _, src := range []string{"- a\n- b\n", "just text\n"} {
		doc, err := Decode([]byte(src))
		require.NoError(t, err)
		before := shape(doc)
		_, err = n.Normalize(doc, "x")
		require.NoError(t, err)
		assert.Equal(t, before, shape(doc))
	}
}

func TestNormalize_EmptyTarget(t *testing.T) {
	n := newTestNormalizer(t)
	doc, err := Decode([]byte("services: {}\n"))
	require.NoError(t, err)
	_, err = n.Normalize(doc, "")
	assert.Error(t, err)
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer(t)

	first, _, err := n.NormalizeBytes([]byte(bigBearManifest), "wiki")
	require.NoError(t, err)
	second, res, err := n.NormalizeBytes(first, "wiki")
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Zero(t, res.Substitutions)
	assert.Empty(t, res.RemovedKeys)
	assert.False(t, res.NameStripped)
}

func TestNormalize_NoPlaceholderIsIdentityOutsideCleanup(t *testing.T) {
	n := newTestNormalizer(t)
	src := `version: "3"
services:
  gitea:
    image: gitea/gitea:1.21
    ports: ["3000:3000", "222:22"]
    environment:
      - USER_UID=1000
      - USER_GID=1000
    deploy:
      resources:
        limits: {cpus: 0.5, memory: 512M}
volumes:
  data: {}
`
	doc, err := Decode([]byte(src))
	require.NoError(t, err)
	before, err := Encode(doc)
	require.NoError(t, err)

	res, err := n.Normalize(doc, "gitea")
	require.NoError(t, err)
	after, err := Encode(doc)
	require.NoError(t, err)

	assert.Zero(t, res.Substitutions)
	if diff := cmp.Diff(string(before), string(after)); diff != "" {
		t.Errorf("document changed (-before +after):\n%s", diff)
	}
}

func TestNormalize_PreservesShapeAtAnyDepth(t *testing.T) {
	for depth := 1; depth <= 6; depth++ {
		for width := 0; width <= 4; width++ {
			t.Run(fmt.Sprintf("depth%d_width%d", depth, width), func(t *testing.T) {
				n := newTestNormalizer(t)
				src := "services:\n  app:\n    payload:\n" + nested(depth, width, "      ")

				doc, err := Decode([]byte(src))
				require.NoError(t, err)
				before := shape(doc)

				_, err = n.Normalize(doc, "svc")
				require.NoError(t, err)

				if diff := cmp.Diff(strings.Replace(before, "key app", "key svc", 1), shape(doc)); diff != "" {
					t.Fatalf("shape changed (-want +got):\n%s", diff)
				}
				out, err := Encode(doc)
				require.NoError(t, err)
				assert.NotContains(t, string(out), "{ServiceName}")
			})
		}
	}
}

func TestNormalize_MultiServiceKeepsAllServices(t *testing.T) {
	n := newTestNormalizer(t)
	src := `services:
  web:
    container_name: "{ServiceName}-web"
    environment:
      DB_HOST: "{ServiceName}-db"
  db:
    image: postgres:16
    hostname: "{ServiceName}"
`
	out, res, err := n.NormalizeBytes([]byte(src), "nextcloud")
	require.NoError(t, err)

	want := `services:
  web:
    container_name: "nextcloud-web"
    environment:
      DB_HOST: "nextcloud-web-db"
  db:
    image: postgres:16
    hostname: "nextcloud"
`
	assert.Equal(t, want, string(out))
	assert.Equal(t, 2, res.Services)
	assert.Equal(t, "nextcloud-web", res.ContainerName)
}

// decodeAny resolves aliases and merge keys the way compose tooling reads
// the file.
func decodeAny(t *testing.T, out []byte) map[string]any {
	t.Helper()
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(out, &parsed))
	return parsed
}

func service(t *testing.T, parsed map[string]any, name string) map[string]any {
	t.Helper()
	services, ok := parsed["services"].(map[string]any)
	require.True(t, ok, "services is not a mapping")
	svc, ok := services[name].(map[string]any)
	require.True(t, ok, "service %q missing", name)
	return svc
}

func TestNormalize_SubstitutesThroughAliases(t *testing.T) {
	src := `x-env: &env
  DB_HOST: "{ServiceName}-db"
  TZ: UTC
services:
  app:
    image: requarks/wiki:2
    environment: *env
`
	n := newTestNormalizer(t)
	out, res, err := n.NormalizeBytes([]byte(src), "wiki")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Substitutions)

	parsed := decodeAny(t, out)
	env := service(t, parsed, "wiki")["environment"].(map[string]any)
	assert.Equal(t, "wiki-db", env["DB_HOST"])
	assert.Equal(t, "UTC", env["TZ"])

	// The shared block keeps its placeholder for other consumers.
	assert.Equal(t, "{ServiceName}-db", parsed["x-env"].(map[string]any)["DB_HOST"])
	assert.Contains(t, string(out), "&env")
}

func TestNormalize_SubstitutesThroughMergeKeys(t *testing.T) {
	src := `x-base: &base
  hostname: "{ServiceName}"
  restart: unless-stopped
x-labels: &labels
  labels:
    traefik.http.routers.app.rule: "Host(` + "`{ServiceName}.local`" + `)"
services:
  app:
    <<: [*base, *labels]
    image: nginx
  sidecar:
    <<: *base
    image: busybox
`
	n := newTestNormalizer(t)
	out, _, err := n.NormalizeBytes([]byte(src), "blog")
	require.NoError(t, err)
	assert.NotContains(t, string(out), "*base")

	parsed := decodeAny(t, out)
	app := service(t, parsed, "app")
	assert.Equal(t, "blog", app["hostname"])
	assert.Equal(t, "unless-stopped", app["restart"])
	assert.Equal(t, "nginx", app["image"])
	labels := app["labels"].(map[string]any)
	assert.Equal(t, "Host(`blog.local`)", labels["traefik.http.routers.app.rule"])

	sidecar := service(t, parsed, "sidecar")
	assert.Equal(t, "blog", sidecar["hostname"])

	assert.Equal(t, "{ServiceName}", parsed["x-base"].(map[string]any)["hostname"])
}

func TestNormalize_AliasesWithoutPlaceholderKept(t *testing.T) {
	src := `x-ports: &ports
  - "80:80"
services:
  app:
    image: nginx
    ports: *ports
`
	n := newTestNormalizer(t)
	out, res, err := n.NormalizeBytes([]byte(src), "web")
	require.NoError(t, err)
	assert.Zero(t, res.Substitutions)
	assert.Contains(t, string(out), "ports: *ports")
}

func TestNormalize_AnchorInsideServiceRewrittenOnce(t *testing.T) {
	src := `services:
  app:
    environment: &env
      URL: "https://{ServiceName}.local"
    labels: *env
`
	n := newTestNormalizer(t)
	out, res, err := n.NormalizeBytes([]byte(src), "wiki")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Substitutions)
	assert.Contains(t, string(out), "labels: *env")

	svc := service(t, decodeAny(t, out), "wiki")
	assert.Equal(t, "https://wiki.local", svc["environment"].(map[string]any)["URL"])
	assert.Equal(t, "https://wiki.local", svc["labels"].(map[string]any)["URL"])
}

func TestNormalize_AliasExpansionIsIdempotent(t *testing.T) {
	src := `x-env: &env
  DB_HOST: "{ServiceName}-db"
services:
  app:
    <<: *env
    environment: *env
`
	n := newTestNormalizer(t)
	first, _, err := n.NormalizeBytes([]byte(src), "wiki")
	require.NoError(t, err)
	second, res, err := n.NormalizeBytes(first, "wiki")
	require.NoError(t, err)

	assert.Zero(t, res.Substitutions)
	assert.Equal(t, string(first), string(second))
}

func TestNormalize_LeavesKeysAndNonStringsAlone(t *testing.T) {
	n := newTestNormalizer(t)
	src := `services:
  app:
    labels:
      "{ServiceName}.enable": true
    healthcheck:
      retries: 3
`
	out, _, err := n.NormalizeBytes([]byte(src), "app")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"{ServiceName}.enable": true`)
	assert.Contains(t, string(out), "retries: 3")
}

func TestNormalize_NumericTargetStaysString(t *testing.T) {
	n := newTestNormalizer(t)
	out, _, err := n.NormalizeBytes([]byte("services:\n  app:\n    hostname: \"{ServiceName}\"\n"), "123")
	require.NoError(t, err)

	var parsed map[string]map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(out, &parsed))
	assert.Equal(t, "123", parsed["services"]["123"]["hostname"])
}

func TestNewNormalizer_RejectsEmptyPlaceholder(t *testing.T) {
	_, err := NewNormalizer(Options{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode([]byte(""))
	assert.Error(t, err)

	_, err = Decode([]byte("services: [unclosed\n"))
	assert.Error(t, err)
}

func indent(s, pad string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n") + "\n"
}

// nested builds alternating mapping/sequence levels holding placeholders.
func nested(depth, width int, pad string) string {
	if depth == 0 {
		return pad + "leaf: \"{ServiceName}/end\"\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%sname: \"pre-{ServiceName}-post\"\n", pad)
	fmt.Fprintf(&b, "%scount: %d\n", pad, depth)
	fmt.Fprintf(&b, "%sitems:\n", pad)
	for i := 0; i < width; i++ {
		fmt.Fprintf(&b, "%s  - \"{ServiceName}-%d\"\n", pad, i)
	}
	if width == 0 {
		fmt.Fprintf(&b, "%s  - %d\n", pad, depth)
	}
	fmt.Fprintf(&b, "%schild:\n", pad)
	b.WriteString(nested(depth-1, width, pad+"  "))
	return b.String()
}
