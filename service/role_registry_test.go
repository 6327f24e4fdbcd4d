package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticRoleRegistry(t *testing.T) {
	ctx := context.Background()
	registry := NewStaticRoleRegistry([]string{"0xAbC", "  0xdef ", ""})

	assert.True(t, registry.HasRole(ctx, "0xabc", RoleAdmin))
	assert.True(t, registry.HasRole(ctx, "0xABC", RoleAdmin))
	assert.True(t, registry.HasRole(ctx, "0xDEF", RoleAdmin))
	assert.False(t, registry.HasRole(ctx, "0x123", RoleAdmin))
	assert.False(t, registry.HasRole(ctx, "", RoleAdmin))
	assert.False(t, registry.HasRole(ctx, "0xabc", Role("auditor")))
}

func TestBetService_IsAdminUsesRegistry(t *testing.T) {
	ctx := context.Background()
	roles := new(MockRoleRegistry)
	roles.On("HasRole", ctx, "0xboss", RoleAdmin).Return(true)
	roles.On("HasRole", ctx, "0xnobody", RoleAdmin).Return(false)

	svc := NewBetService(new(MockUnitOfWorkFactory), roles, nil)

	assert.True(t, svc.IsAdmin(ctx, "0xboss"))
	assert.False(t, svc.IsAdmin(ctx, "0xnobody"))
	roles.AssertExpectations(t)
}
