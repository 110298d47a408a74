package models_test

import (
	"errors"
	"testing"

	"denuncias/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewComplaint(t *testing.T) {
	c, err := models.NewComplaint("user-1", "Buraco na rua", "infraestrutura")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.Equal(t, "user-1", c.UserID)

	_, err = models.NewComplaint("", "Buraco na rua", "infraestrutura")
	assert.True(t, errors.Is(err, models.ErrOwnerRequired))
	assert.True(t, errors.Is(err, models.ErrBadRequest))
}

func TestComplaintPatch_OnlyAppliesPresentFields(t *testing.T) {
	c := &models.Complaint{
		Title:       "Buraco",
		Category:    "infraestrutura",
		Status:      models.StatusPending,
		Description: strPtr("perto da escola"),
	}
	patch := models.ComplaintPatch{Status: strPtr(models.StatusResolved)}

	assert.Equal(t, map[string]interface{}{"status": models.StatusResolved}, patch.Columns())

	patch.Apply(c)
	assert.Equal(t, models.StatusResolved, c.Status)
	assert.Equal(t, "Buraco", c.Title)
	assert.Equal(t, "perto da escola", *c.Description)
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{models.StatusPending, models.StatusInProgress, models.StatusResolved, models.StatusCancelled} {
		assert.True(t, models.IsValidStatus(s), s)
	}
	assert.False(t, models.IsValidStatus("pendente"))
	assert.False(t, models.IsValidStatus(""))
}
