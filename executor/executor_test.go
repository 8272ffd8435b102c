package executor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Protocol-Lattice/slingql/ast"
	"github.com/Protocol-Lattice/slingql/fetcher"
	"github.com/Protocol-Lattice/slingql/lexer"
	"github.com/Protocol-Lattice/slingql/parser"
	"github.com/Protocol-Lattice/slingql/scalar"
	"github.com/Protocol-Lattice/slingql/schema"
)

const testSDL = `
scalar DateTime @convertedBy(name: "sling/datetime")
scalar Long @convertedBy(name: "sling/long")

type Query {
  user(id: ID!): User @fetcher(name: "custom/user")
  users: [User] @fetcher(name: "custom/users")
  echo(at: DateTime, n: Long): String @fetcher(name: "custom/echo", options: "at")
  when: DateTime @fetcher(name: "custom/when")
  broken: DateTime @fetcher(name: "custom/broken")
  failing: String @fetcher(name: "custom/failing")
  counts: [Long] @fetcher(name: "custom/counts")
}

type Mutation {
  rename(id: ID!, name: String!): User @fetcher(name: "custom/rename")
}

type Subscription {
  ticks: Long @fetcher(name: "custom/ticks")
}

type User {
  id: ID!
  name: String
  joined: DateTime
  friends: [User]
  greeting: String @fetcher(name: "custom/greeting", options: "Hello")
}
`

type User struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Joined  time.Time `json:"joined"`
	Friends []*User   `json:"friends,omitempty"`
	secret  string
}

var joined = time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

func newExecutor(t *testing.T) *Executor {
	t.Helper()
	bob := &User{ID: "2", Name: "Bob", Joined: joined}
	alice := &User{ID: "1", Name: "Alice", Joined: joined, Friends: []*User{bob}}
	users := map[string]*User{"1": alice, "2": bob}

	reg := fetcher.NewRegistry()
	add := func(name string, f fetcher.Func) {
		_, err := reg.Register(name, "com.example.test", f)
		require.NoError(t, err)
	}
	add("custom/user", func(env *fetcher.Env) (interface{}, error) {
		return users[env.Arg("id").(string)], nil
	})
	add("custom/users", func(*fetcher.Env) (interface{}, error) {
		return []*User{alice, bob}, nil
	})
	add("custom/echo", func(env *fetcher.Env) (interface{}, error) {
		return fmt.Sprintf("%v|%v", env.Arg(env.Options), env.Arg("n")), nil
	})
	add("custom/when", func(*fetcher.Env) (interface{}, error) { return joined, nil })
	add("custom/broken", func(*fetcher.Env) (interface{}, error) { return "not a time", nil })
	add("custom/failing", func(*fetcher.Env) (interface{}, error) { return nil, errors.New("backend down") })
	add("custom/counts", func(*fetcher.Env) (interface{}, error) { return []int64{1, 2, math.MaxInt64}, nil })
	add("custom/rename", func(env *fetcher.Env) (interface{}, error) {
		u := users[env.Arg("id").(string)]
		u.Name = env.Arg("name").(string)
		return u, nil
	})
	add("custom/greeting", func(env *fetcher.Env) (interface{}, error) {
		return env.Options + ", " + env.Parent.(*User).Name, nil
	})
	add("custom/ticks", func(env *fetcher.Env) (interface{}, error) {
		ch := make(chan interface{}, 2)
		ch <- int64(1)
		ch <- int64(2)
		close(ch)
		return ch, nil
	})

	scalars := scalar.NewRegistry()
	require.NoError(t, scalar.Register(scalars, "org.apache.sling.graphql.builtin", scalar.Builtins()...))

	doc, err := schema.Parse(testSDL)
	require.NoError(t, err)
	s, err := schema.Bind(doc, fetcher.NewSelector(reg, nil), scalar.NewSelector(scalars), nil)
	require.NoError(t, err)
	return New(s)
}

func run(t *testing.T, e *Executor, query string, vars map[string]interface{}) *Result {
	t.Helper()
	p := parser.New(lexer.New(query))
	doc := p.ParseDocument()
	require.Empty(t, p.Errors())
	res, err := e.Execute(context.Background(), doc, vars)
	require.NoError(t, err)
	return res
}

func TestExecute_NestedSelection(t *testing.T) {
	res := run(t, newExecutor(t), `{ user(id: "1") { name joined friends { id name } greeting } }`, nil)
	require.Empty(t, res.Errors)

	user := res.Data["user"].(map[string]interface{})
	assert.Equal(t, "Alice", user["name"])
	assert.Equal(t, "2020-01-02T03:04:05Z", user["joined"])
	assert.Equal(t, "Hello, Alice", user["greeting"])
	friends := user["friends"].([]interface{})
	require.Len(t, friends, 1)
	assert.Equal(t, map[string]interface{}{"id": "2", "name": "Bob"}, friends[0])
}

func TestExecute_ListOfObjectsAndAliases(t *testing.T) {
	res := run(t, newExecutor(t), `{ everyone: users { who: name __typename } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"who": "Alice", "__typename": "User"},
		map[string]interface{}{"who": "Bob", "__typename": "User"},
	}, res.Data["everyone"])
}

func TestExecute_ScalarArgumentsParsed(t *testing.T) {
	res := run(t, newExecutor(t), `query ($at: DateTime) { echo(at: $at, n: 42) }`,
		map[string]interface{}{"at": "2020-01-02T03:04:05Z"})
	require.Empty(t, res.Errors)
	assert.Equal(t, "2020-01-02 03:04:05 +0000 UTC|42", res.Data["echo"])
}

func TestExecute_ScalarListSerialized(t *testing.T) {
	res := run(t, newExecutor(t), `{ counts }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, []interface{}{int64(1), int64(2), int64(math.MaxInt64)}, res.Data["counts"])
}

func TestExecute_PartialResults(t *testing.T) {
	res := run(t, newExecutor(t), `{ echo(at: "yesterday") when broken failing user(id: "2") { name } }`, nil)

	assert.Equal(t, "2020-01-02T03:04:05Z", res.Data["when"])
	assert.Equal(t, map[string]interface{}{"name": "Bob"}, res.Data["user"])
	assert.Nil(t, res.Data["echo"])
	assert.Nil(t, res.Data["broken"])
	assert.Nil(t, res.Data["failing"])
	assert.Contains(t, res.Data, "echo")

	require.Len(t, res.Errors, 3)
	byPath := map[string]*FieldError{}
	for _, fe := range res.Errors {
		byPath[fmt.Sprint(fe.Path...)] = fe
	}

	parseErr := byPath["echo"]
	require.NotNil(t, parseErr)
	assert.Equal(t, CodeBadUserInput, parseErr.Extensions["code"])
	assert.ErrorIs(t, parseErr, scalar.ErrConversion)

	serializeErr := byPath["broken"]
	require.NotNil(t, serializeErr)
	assert.Equal(t, CodeInternal, serializeErr.Extensions["code"])

	fetchErr := byPath["failing"]
	require.NotNil(t, fetchErr)
	assert.Equal(t, "backend down", fetchErr.Message)
	assert.Nil(t, fetchErr.Extensions)
}

func TestExecute_RequiredArgument(t *testing.T) {
	res := run(t, newExecutor(t), `{ user { name } }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, CodeBadUserInput, res.Errors[0].Extensions["code"])
	assert.Equal(t, []interface{}{"user"}, res.Errors[0].Path)
}

func TestExecute_Mutation(t *testing.T) {
	res := run(t, newExecutor(t), `mutation { rename(id: "2", name: "Robert") { id name } }`, nil)
	require.Empty(t, res.Errors)
	assert.Equal(t, map[string]interface{}{"id": "2", "name": "Robert"}, res.Data["rename"])
}

func TestExecute_UnknownRootField(t *testing.T) {
	res := run(t, newExecutor(t), `{ nope }`, nil)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "no fetcher bound for field nope")
}

func TestExecute_DocumentErrors(t *testing.T) {
	e := newExecutor(t)
	_, err := e.Execute(context.Background(), &ast.Document{}, nil)
	assert.EqualError(t, err, "no definitions found")

	doc := parser.New(lexer.New(`subscription { ticks }`)).ParseDocument()
	_, err = e.Execute(context.Background(), doc, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc = parser.New(lexer.New(`{ when }`)).ParseDocument()
	_, err = e.Execute(ctx, doc, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubscribe(t *testing.T) {
	e := newExecutor(t)
	doc := parser.New(lexer.New(`subscription { ticks }`)).ParseDocument()
	ch, err := e.Subscribe(context.Background(), doc, nil)
	require.NoError(t, err)

	var got []interface{}
	for v := range ch {
		got = append(got, v)
	}
	assert.Equal(t, []interface{}{int64(1), int64(2)}, got)

	_, err = e.ExecuteSubscription(context.Background(), &ast.Field{Name: "missing"}, nil)
	assert.Error(t, err)

	doc = parser.New(lexer.New(`{ when }`)).ParseDocument()
	_, err = e.Subscribe(context.Background(), doc, nil)
	assert.EqualError(t, err, "provided operation is not a subscription")
}

func TestReflectResolve(t *testing.T) {
	u := &User{ID: "9", Name: "Zed", secret: "x"}
	v, err := reflectResolve(u, &ast.Field{Name: "NAME"})
	require.NoError(t, err)
	assert.Equal(t, "Zed", v)

	_, err = reflectResolve(u, &ast.Field{Name: "secret"})
	assert.Error(t, err)

	v, err = reflectResolve(map[string]interface{}{"k": 1}, &ast.Field{Name: "k"})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = reflectResolve(map[string]string{"k": "s"}, &ast.Field{Name: "k"})
	require.NoError(t, err)
	assert.Equal(t, "s", v)

	_, err = reflectResolve(42, &ast.Field{Name: "k"})
	assert.Error(t, err)
}

func TestBuildValue(t *testing.T) {
	vars := map[string]interface{}{"v": "x"}
	tests := []struct {
		val  *ast.Value
		want interface{}
	}{
		{&ast.Value{Kind: "Int", Literal: "7"}, 7},
		{&ast.Value{Kind: "Int", Literal: "99999999999999999999"}, "99999999999999999999"},
		{&ast.Value{Kind: "Float", Literal: "1.5"}, 1.5},
		{&ast.Value{Kind: "Null", Literal: "null"}, nil},
		{&ast.Value{Kind: "Enum", Literal: "RED"}, "RED"},
		{&ast.Value{Kind: "Variable", Literal: "v"}, "x"},
		{&ast.Value{Kind: "Variable", Literal: "missing"}, nil},
		{&ast.Value{Kind: "Array", List: []*ast.Value{{Kind: "Boolean", Literal: "true"}}}, []interface{}{true}},
		{nil, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, buildValue(tt.val, vars))
	}
}
