package state_test

import (
	"encoding/json"
	"formflow/domain/notify"
	"formflow/domain/state"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("StateMachine", func() {
	var (
		stateMachine *state.StateMachine
	)

	BeforeEach(func() {
		//           DRAFT        REVIEW        APPROVED
		// DRAFT      -            V (submit)    X
		// REVIEW     V (reject)   -             V (approve)
		// APPROVED   V (reopen)   X             -
		stateMachine = state.NewStateMachine(
			[]state.State{{Code: "DRAFT", Name: "Draft"}, {Code: "REVIEW", Name: "Review"}, {Code: "APPROVED", Name: "Approved", IsFinal: true}},
			[]state.Transition{
				{From: "DRAFT", To: "REVIEW", Action: "submit"},
				{From: "REVIEW", To: "DRAFT", Action: "reject", RequiresComment: true},
				{From: "REVIEW", To: "APPROVED", Action: "approve", Label: "Approve", Permission: "expense:approve"},
				{From: "APPROVED", To: "DRAFT", Action: "reopen"},
			})
	})

	Describe("NewStateMachine", func() {
		Context("With given DRAFT-REVIEW-APPROVED states and transitions", func() {
			It("should create new State Machine successfully", func() {
				Expect(stateMachine).NotTo(BeZero())
				Expect(len(stateMachine.States)).Should(Equal(3))
				Expect(len(stateMachine.Transitions)).Should(Equal(4))
			})
		})
	})

	Describe("FindState", func() {
		It("should find declared states only", func() {
			s, found := stateMachine.FindState("APPROVED")
			Expect(found).To(BeTrue())
			Expect(s.IsFinal).To(BeTrue())

			_, found = stateMachine.FindState("UNKNOWN")
			Expect(found).To(BeFalse())
		})
	})

	Describe("AvailableTransitions", func() {
		It("should filter transitions by source and target", func() {
			Ω(stateMachine.AvailableTransitions("REVIEW", "")).Should(Equal([]state.Transition{
				{From: "REVIEW", To: "DRAFT", Action: "reject", RequiresComment: true},
				{From: "REVIEW", To: "APPROVED", Action: "approve", Label: "Approve", Permission: "expense:approve"},
			}))
			Ω(stateMachine.AvailableTransitions("", "DRAFT")).Should(Equal([]state.Transition{
				{From: "REVIEW", To: "DRAFT", Action: "reject", RequiresComment: true},
				{From: "APPROVED", To: "DRAFT", Action: "reopen"},
			}))
			Ω(len(stateMachine.AvailableTransitions("", ""))).Should(Equal(4))
			Ω(len(stateMachine.AvailableTransitions("UNKNOWN", ""))).Should(Equal(0))
		})
	})

	Describe("EligibleTransitions", func() {
		It("should return transitions leaving the current state in declaration order", func() {
			Ω(stateMachine.EligibleTransitions("DRAFT")).Should(Equal([]state.Transition{
				{From: "DRAFT", To: "REVIEW", Action: "submit"},
			}))
			Ω(stateMachine.EligibleTransitions("UNKNOWN")).Should(BeEmpty())
			Ω(stateMachine.EligibleTransitions("")).Should(BeEmpty())
		})
	})

	Describe("Transition", func() {
		It("should fall back to action for display label", func() {
			Ω(state.Transition{Action: "approve"}.DisplayLabel()).Should(Equal("approve"))
			Ω(state.Transition{Action: "approve", Label: "Approve it"}.DisplayLabel()).Should(Equal("Approve it"))
		})

		It("should decode the snake case wire format", func() {
			t := state.Transition{}
			err := json.Unmarshal([]byte(`{"from":"REVIEW","to":"APPROVED","action":"approve","requires_comment":true,
				"notifications":[{"recipients":[{"type":"submitter"}],"title_template":"t","body_template":"b","priority":"high"}]}`), &t)
			Ω(err).Should(BeNil())
			Ω(t.RequiresComment).Should(BeTrue())
			Ω(t.Notifications).Should(Equal([]notify.NotificationRule{{
				Recipients:    []notify.RecipientSpec{notify.ToSubmitter()},
				TitleTemplate: "t", BodyTemplate: "b", Priority: notify.PriorityHigh,
			}}))
		})
	})
})
