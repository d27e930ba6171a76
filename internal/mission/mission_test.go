package mission_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/racesim/internal/mission"
)

var _ = Describe("Machine", func() {
	var m *mission.Machine

	BeforeEach(func() {
		m = mission.NewMachine(mission.Limits{MaxDrivingTime: 10, MaxSpeed: 30})
	})

	startDriving := func() {
		Expect(m.SelectMission("trackdrive")).To(Succeed())
		Expect(m.GoSignal(true)).To(Succeed())
		Expect(m.Current()).To(Equal(mission.Driving))
	}

	Describe("initial state", func() {
		It("starts OFF with actuation disabled", func() {
			Expect(m.Current()).To(Equal(mission.Off))
			Expect(m.ActuationAllowed()).To(BeFalse())
		})

		It("ignores a go signal while OFF", func() {
			err := m.GoSignal(true)
			Expect(err).To(MatchError(mission.ErrInvalidTransition))
			Expect(m.Current()).To(Equal(mission.Off))
		})

		It("only accepts a mission selection", func() {
			Expect(m.Finish()).To(MatchError(mission.ErrInvalidTransition))
			Expect(m.SelectMission("acceleration")).To(Succeed())
			Expect(m.Current()).To(Equal(mission.Ready))
			Expect(m.Mission()).To(Equal("acceleration"))
		})

		It("rejects an empty mission selection", func() {
			Expect(m.SelectMission("")).To(MatchError(mission.ErrInvalidTransition))
			Expect(m.Current()).To(Equal(mission.Off))
		})
	})

	Describe("go signal edge handling", func() {
		BeforeEach(func() {
			Expect(m.SelectMission("trackdrive")).To(Succeed())
		})

		It("starts driving on a rising edge", func() {
			Expect(m.GoSignal(true)).To(Succeed())
			Expect(m.Current()).To(Equal(mission.Driving))
		})

		It("ignores a held-high level", func() {
			Expect(m.GoSignal(true)).To(Succeed())
			Expect(m.Finish()).To(Succeed())
			// Still high: no new edge, no complaint, no restart.
			Expect(m.GoSignal(true)).To(Succeed())
			Expect(m.Current()).To(Equal(mission.Finished))
		})

		It("requires the level to drop before a second start", func() {
			Expect(m.GoSignal(true)).To(Succeed())
			m.Reset()
			Expect(m.SelectMission("trackdrive")).To(Succeed())
			// Reset cleared the stored level, so high is a fresh edge.
			Expect(m.GoSignal(true)).To(Succeed())
			Expect(m.Current()).To(Equal(mission.Driving))
		})
	})

	Describe("driving", func() {
		BeforeEach(startDriving)

		It("enables actuation", func() {
			Expect(m.ActuationAllowed()).To(BeTrue())
		})

		It("re-selecting a mission is rejected", func() {
			Expect(m.SelectMission("skidpad")).To(MatchError(mission.ErrInvalidTransition))
			Expect(m.Mission()).To(Equal("trackdrive"))
		})

		It("finishes on completion", func() {
			Expect(m.Finish()).To(Succeed())
			Expect(m.Current()).To(Equal(mission.Finished))
			Expect(m.ActuationAllowed()).To(BeFalse())
		})

		It("brakes when the driving time limit is exceeded", func() {
			for i := 0; i < 95; i++ {
				m.Tick(0.1, 5.0)
			}
			Expect(m.Current()).To(Equal(mission.Driving))
			for i := 0; i < 10; i++ {
				m.Tick(0.1, 5.0)
			}
			Expect(m.Current()).To(Equal(mission.EmergencyBrake))
			Expect(m.Violation()).To(ContainSubstring("max driving time"))
		})

		It("brakes when the speed limit is exceeded", func() {
			m.Tick(0.01, 29.9)
			Expect(m.Current()).To(Equal(mission.Driving))
			m.Tick(0.01, -30.5)
			Expect(m.Current()).To(Equal(mission.EmergencyBrake))
			Expect(m.Violation()).To(ContainSubstring("max speed"))
		})
	})

	Describe("emergency brake requests", func() {
		It("is honored from every non-terminal state", func() {
			for _, setup := range []func(){
				func() {},
				func() { Expect(m.SelectMission("trackdrive")).To(Succeed()) },
				startDriving,
				func() { Expect(m.EnterManual()).To(Succeed()) },
			} {
				m = mission.NewMachine(mission.Limits{})
				setup()
				Expect(m.EmergencyBrake("operator request")).To(Succeed())
				Expect(m.Current()).To(Equal(mission.EmergencyBrake))
				Expect(m.ActuationAllowed()).To(BeFalse())
			}
		})

		It("is idempotent once braking", func() {
			Expect(m.EmergencyBrake("first")).To(Succeed())
			Expect(m.EmergencyBrake("second")).To(Succeed())
			Expect(m.Violation()).To(Equal("first"))
		})

		It("does not revive a finished run", func() {
			startDriving()
			Expect(m.Finish()).To(Succeed())
			Expect(m.EmergencyBrake("late")).To(MatchError(mission.ErrInvalidTransition))
			Expect(m.Current()).To(Equal(mission.Finished))
		})
	})

	Describe("reset", func() {
		It("returns to OFF from a terminal state and clears latches", func() {
			startDriving()
			Expect(m.EmergencyBrake("boom")).To(Succeed())

			m.Reset()
			Expect(m.Current()).To(Equal(mission.Off))
			Expect(m.Mission()).To(BeEmpty())
			Expect(m.Violation()).To(BeEmpty())
			Expect(m.DrivingTime()).To(BeZero())
		})
	})

	Describe("manual mode", func() {
		It("enables actuation without a mission", func() {
			Expect(m.EnterManual()).To(Succeed())
			Expect(m.ActuationAllowed()).To(BeTrue())
			Expect(m.Mission()).To(BeEmpty())
		})

		It("cannot be entered mid-mission", func() {
			Expect(m.SelectMission("skidpad")).To(Succeed())
			Expect(m.EnterManual()).To(MatchError(mission.ErrInvalidTransition))
		})

		It("is never entered by the automaton", func() {
			startDriving()
			for i := 0; i < 1000; i++ {
				m.Tick(0.001, 5.0)
			}
			Expect(m.Current()).NotTo(Equal(mission.Manual))
		})
	})

	Describe("full mission sequence", func() {
		It("gates actuation correctly at every step", func() {
			Expect(m.ActuationAllowed()).To(BeFalse())

			Expect(m.SelectMission("autocross")).To(Succeed())
			Expect(m.ActuationAllowed()).To(BeFalse())

			Expect(m.GoSignal(true)).To(Succeed())
			Expect(m.ActuationAllowed()).To(BeTrue())

			Expect(m.EmergencyBrake("out of bounds")).To(Succeed())
			Expect(m.ActuationAllowed()).To(BeFalse())
			Expect(m.Previous()).To(Equal(mission.Driving))
		})
	})
})
