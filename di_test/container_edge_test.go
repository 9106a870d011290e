package di_test

import (
	"errors"
	"testing"

	di "github.com/abdoElHodaky/smartfixapi-sub000"
	"github.com/abdoElHodaky/smartfixapi-sub000/mock"
	"github.com/stretchr/testify/suite"
)

type EdgeCaseTestSuite struct {
	suite.Suite
	container *di.Container
}

func (s *EdgeCaseTestSuite) SetupTest() {
	s.container = di.New()
}

func (s *EdgeCaseTestSuite) TestClearNamedKeepsOthers() {
	aFactory := &mock.SlowFactory{}
	bFactory := &mock.SlowFactory{}
	s.NoError(s.container.RegisterSingleton("a", aFactory.New))
	s.NoError(s.container.RegisterSingleton("b", bFactory.New))

	oldA, _ := s.container.Resolve("a")
	oldB, _ := s.container.Resolve("b")

	s.container.Clear("a")

	newA, err := s.container.Resolve("a")
	s.NoError(err)
	s.NotSame(oldA, newA)

	sameB, err := s.container.Resolve("b")
	s.NoError(err)
	s.Same(oldB, sameB)
	s.EqualValues(1, bFactory.Calls())
}

func (s *EdgeCaseTestSuite) TestClearAll() {
	factory := &mock.SlowFactory{}
	s.NoError(s.container.RegisterSingleton("a", factory.New))
	s.NoError(s.container.RegisterSingleton("b", factory.New))

	oldA, _ := s.container.Resolve("a")
	oldB, _ := s.container.Resolve("b")

	s.container.Clear()

	newA, _ := s.container.Resolve("a")
	newB, _ := s.container.Resolve("b")
	s.NotSame(oldA, newA)
	s.NotSame(oldB, newB)

	// Registrations survive a Clear.
	s.True(s.container.Has("a"))
	s.True(s.container.Has("b"))
}

func (s *EdgeCaseTestSuite) TestClearUnknownName() {
	s.NotPanics(func() {
		s.container.Clear("never-registered")
	})
}

func (s *EdgeCaseTestSuite) TestResetDropsEverything() {
	s.NoError(s.container.RegisterSingleton("logger", func([]any) (any, error) {
		return mock.NewLogger(), nil
	}))
	_, err := s.container.Resolve("logger")
	s.NoError(err)

	s.container.Reset()

	s.False(s.container.Has("logger"))
	s.Empty(s.container.RegisteredServices())
	s.Empty(s.container.AllMetrics())

	_, err = s.container.Resolve("logger")
	var notFound *di.UnregisteredServiceError
	s.True(errors.As(err, &notFound))
}

func (s *EdgeCaseTestSuite) TestEmptyDependencyList() {
	s.NoError(s.container.RegisterSingleton("svc", func(deps []any) (any, error) {
		s.Empty(deps)
		return &mock.Widget{ID: 7}, nil
	}))

	widget, err := di.ResolveAs[*mock.Widget](s.container, "svc")
	s.NoError(err)
	s.Equal(7, widget.ID)
}

func (s *EdgeCaseTestSuite) TestFailedSingletonIsRetriedOnResolve() {
	factory := &mock.FlakyFactory{Failures: 1}
	s.NoError(s.container.RegisterSingleton("flaky", factory.New))

	_, err := s.container.Resolve("flaky")
	s.Error(err)

	instance, err := s.container.Resolve("flaky")
	s.NoError(err)
	s.NotNil(instance)
	s.EqualValues(2, factory.Calls())
}

func (s *EdgeCaseTestSuite) TestCloseOnEmptyContainer() {
	s.NoError(s.container.Close())
}

func (s *EdgeCaseTestSuite) TestTransientDependingOnSingleton() {
	type session struct{ db any }

	dbFactory := &mock.SlowFactory{}
	s.NoError(s.container.RegisterSingleton("db", dbFactory.New))
	s.NoError(s.container.RegisterTransient("session", func(deps []any) (any, error) {
		return &session{db: deps[0]}, nil
	}, "db"))

	first, err := s.container.Resolve("session")
	s.NoError(err)
	second, err := s.container.Resolve("session")
	s.NoError(err)

	s.NotSame(first, second)
	s.Same(first.(*session).db, second.(*session).db, "both sessions share the singleton db")
	s.EqualValues(1, dbFactory.Calls())
}

func TestEdgeCaseSuite(t *testing.T) {
	suite.Run(t, new(EdgeCaseTestSuite))
}
