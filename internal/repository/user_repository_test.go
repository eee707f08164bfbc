package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_PublicProfile(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT id,name,username,avatar_url FROM users WHERE id=\?`).WithArgs("usr_1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "username", "avatar_url"}).AddRow("usr_1", "Ana", "ana", nil))

	p, err := NewUserRepo(db).PublicProfile(context.Background(), "usr_1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	require.NotNil(t, p.Username)
	assert.Equal(t, "ana", *p.Username)
	assert.Nil(t, p.AvatarURL)
}

func TestUserRepo_PublicProfileMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM users`).WillReturnError(sql.ErrNoRows)

	_, err := NewUserRepo(db).PublicProfile(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}
