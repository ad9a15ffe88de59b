package detect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestDetect_MissingPackageJSON(t *testing.T) {
	root := t.TempDir()
	got := Detect(root)
	require.False(t, got.OK)
	require.Equal(t, "package.json not found", got.Reason)
}

func TestDetect_MalformedPackageJSON(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), "{not json")
	got := Detect(root)
	require.False(t, got.OK)
	require.Contains(t, got.Reason, "Failed to parse package.json")
}

func TestDetect_MissingNextDependency(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies":{"react":"18.0.0"}}`)
	got := Detect(root)
	require.False(t, got.OK)
	require.Equal(t, "next dependency not found", got.Reason)
}

func TestDetect_NextInDevDependenciesIsAccepted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"devDependencies":{"next":"14.0.0"}}`)
	writeFile(t, filepath.Join(root, "app", "page.tsx"), "export default function Page() {}")
	got := Detect(root)
	require.True(t, got.OK)
}

func TestDetect_MissingAppDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies":{"next":"14.0.0"}}`)
	got := Detect(root)
	require.False(t, got.OK)
	require.Equal(t, "app/ directory not found", got.Reason)
}

func TestDetect_PrefersAppOverSrcApp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies":{"next":"14.0.0"}}`)
	writeFile(t, filepath.Join(root, "app", "page.tsx"), "export default function Page() {}")
	writeFile(t, filepath.Join(root, "src", "app", "page.tsx"), "export default function Page() {}")

	got := Detect(root)
	require.True(t, got.OK)
	require.Equal(t, filepath.Join(root, "app"), got.AppDir)
}

func TestDetect_FallsBackToSrcApp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies":{"next":"14.0.0"}}`)
	writeFile(t, filepath.Join(root, "src", "app", "page.tsx"), "export default function Page() {}")

	got := Detect(root)
	require.True(t, got.OK)
	require.Equal(t, filepath.Join(root, "src", "app"), got.AppDir)
}

func TestDetect_FindsRouteHandlersAndServerActions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies":{"next":"14.0.0"}}`)
	writeFile(t, filepath.Join(root, "app", "api", "users", "route.ts"), "export async function GET() {}")
	writeFile(t, filepath.Join(root, "app", "actions.ts"), "\"use server\";\nexport async function createUser() {}")

	got := Detect(root)
	require.True(t, got.OK)
	require.True(t, got.HasRouteHandlers)
	require.True(t, got.HasServerActions)
}

func TestDetect_NoRouteHandlersOrServerActions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), `{"dependencies":{"next":"14.0.0"}}`)
	writeFile(t, filepath.Join(root, "app", "page.tsx"), "export default function Page() {}")

	got := Detect(root)
	require.True(t, got.OK)
	require.False(t, got.HasRouteHandlers)
	require.False(t, got.HasServerActions)
}

func TestHasUseServerDirective_LeadingDoubleQuote(t *testing.T) {
	require.True(t, HasUseServerDirective(`"use server";

export async function createOrder() {}`))
}

func TestHasUseServerDirective_LeadingSingleQuote(t *testing.T) {
	require.True(t, HasUseServerDirective(`'use server'
export async function createOrder() {}`))
}

func TestHasUseServerDirective_AllowsLeadingLineComment(t *testing.T) {
	require.True(t, HasUseServerDirective(`// eslint-disable-next-line
"use server";
export async function createOrder() {}`))
}

func TestHasUseServerDirective_AllowsLeadingBlockComment(t *testing.T) {
	require.True(t, HasUseServerDirective(`/* server action */
"use server";
export async function createOrder() {}`))
}

func TestHasUseServerDirective_AllowsLeadingWhitespace(t *testing.T) {
	require.True(t, HasUseServerDirective("\n\n  \t\"use server\";\nexport async function createOrder() {}"))
}

func TestHasUseServerDirective_FalseWhenDirectiveIsNotLeading(t *testing.T) {
	require.False(t, HasUseServerDirective(`export async function createOrder() {
  "use server";
}`))
}

func TestHasUseServerDirective_FalseWhenAbsent(t *testing.T) {
	require.False(t, HasUseServerDirective(`export async function GET() { return new Response("ok"); }`))
}

func TestHasUseServerDirective_UnterminatedBlockCommentIsNotADirective(t *testing.T) {
	require.False(t, HasUseServerDirective(`/* unterminated
"use server";`))
}
