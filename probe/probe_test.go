package probe

import "testing"

func TestHasAuthCall(t *testing.T) {
	hints := []string{"auth", "requireAuth"}
	if !HasAuthCall(`const session = await auth();`, hints) {
		t.Fatal("expected auth( to match")
	}
	if HasAuthCall(`const user = await authorize();`, hints) {
		t.Fatal("authorize( must not match auth(")
	}
	if HasAuthCall(`const x = myauth();`, hints) {
		t.Fatal("myauth( must not match auth( (prefix collision)")
	}
}

func TestHasTenantScope(t *testing.T) {
	src := `await db.user.findMany({ where: { orgId: session.orgId } })`
	if !HasTenantScope(src, []string{"orgId", "organizationId"}) {
		t.Fatal("expected orgId in where clause to match")
	}
	src2 := `await db.user.findMany({ where: { id: userId } })`
	if HasTenantScope(src2, []string{"orgId"}) {
		t.Fatal("did not expect orgId match with unrelated where clause")
	}
}

func TestHasMutation(t *testing.T) {
	if !HasMutation(`await db.user.create({ data: body })`) {
		t.Fatal("expected create( mutation to match")
	}
	if HasMutation(`await db.user.findMany({})`) {
		t.Fatal("findMany is not a mutation")
	}
}
